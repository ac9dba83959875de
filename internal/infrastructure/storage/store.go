// Package storage uploads KYC documents and payment proofs to a blob store
// and hands back public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// BlobStore stores objects and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes key; a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client supplied file name to a safe object key
// segment.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func validateKey(bucket, key string) error {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || bucket == "." || bucket == ".." {
		return fmt.Errorf("invalid bucket %q", bucket)
	}
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid object key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid object key %q", key)
		}
	}
	return nil
}
