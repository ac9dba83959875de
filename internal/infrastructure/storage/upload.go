package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	domainerrors "solbol.backend/internal/domain/errors"
)

// DocumentTypes are the content types accepted for KYC documents and
// payment proofs.
var DocumentTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

// Upload is a validated file read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Extension   string
	Data        []byte
}

// Size returns the payload length.
func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// Reader returns a fresh reader over the payload.
func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

// ReadUpload reads a multipart file, enforcing maxBytes, and sniffs its
// content type from the bytes rather than trusting the client header.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64, allowed []string) (*Upload, error) {
	if fh == nil {
		return nil, domainerrors.ErrBadRequest
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, domainerrors.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return readUpload(f, fh.Filename, maxBytes, allowed)
}

func readUpload(r io.Reader, filename string, maxBytes int64, allowed []string) (*Upload, error) {
	limited := r
	if maxBytes > 0 {
		limited = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domainerrors.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, domainerrors.ErrUnsupportedFile
	}

	mtype := mimetype.Detect(data)
	if len(allowed) > 0 && !mimetype.EqualsAny(mtype.String(), allowed...) {
		return nil, domainerrors.ErrUnsupportedFile
	}

	return &Upload{
		Filename:    SanitizeFilename(filename),
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
		Data:        data,
	}, nil
}
