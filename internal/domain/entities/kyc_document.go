package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// DocumentType identifies one of the three KYC captures
type DocumentType string

const (
	DocumentDNIFront DocumentType = "dni_front"
	DocumentDNIBack  DocumentType = "dni_back"
	DocumentSelfie   DocumentType = "selfie"
)

// RequiredDocuments lists the documents a client uploads during onboarding,
// in wizard order.
var RequiredDocuments = []DocumentType{DocumentDNIFront, DocumentDNIBack, DocumentSelfie}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentDNIFront, DocumentDNIBack, DocumentSelfie:
		return true
	}
	return false
}

// KYCDocument is an identity document uploaded by a client
type KYCDocument struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	DocumentType DocumentType `json:"document_type"`
	FileURL      string       `json:"file_url"`
	UploadedAt   time.Time    `json:"uploaded_at"`
	Verified     bool         `json:"verified"`
	VerifiedAt   null.Time    `json:"verified_at"`
	VerifiedBy   null.String  `json:"verified_by"`
}

// KYCStatusView summarises a client's onboarding progress
type KYCStatusView struct {
	Status    UserStatus     `json:"status"`
	Documents []*KYCDocument `json:"documents"`
	Missing   []DocumentType `json:"missing"`
	Complete  bool           `json:"complete"`
}

// PendingKYCUser is a user awaiting review together with their documents
type PendingKYCUser struct {
	*User
	Documents []*KYCDocument `json:"kyc_documents"`
}

// KYCDecisionInput is the body of the approve and reject endpoints
type KYCDecisionInput struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Reason string `json:"reason" binding:"max=500"`
}

// MissingDocuments returns the required types not present in docs.
func MissingDocuments(docs []*KYCDocument) []DocumentType {
	have := make(map[DocumentType]bool, len(docs))
	for _, d := range docs {
		have[d.DocumentType] = true
	}
	missing := make([]DocumentType, 0)
	for _, t := range RequiredDocuments {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
