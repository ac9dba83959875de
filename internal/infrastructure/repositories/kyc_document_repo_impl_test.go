package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"solbol.backend/internal/domain/entities"
)

func TestKYCDocumentRepository_ReplaceAndVerify(t *testing.T) {
	db := newTestDB(t)
	createKYCTable(t, db)
	repo := NewKYCDocumentRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	adminID := uuid.New()

	upload := func(docType entities.DocumentType, url string) {
		require.NoError(t, repo.DeleteUnverified(ctx, userID, docType))
		require.NoError(t, repo.Create(ctx, &entities.KYCDocument{
			ID:           uuid.New(),
			UserID:       userID,
			DocumentType: docType,
			FileURL:      url,
		}))
	}

	upload(entities.DocumentDNIFront, "kyc/front-1.jpg")
	upload(entities.DocumentDNIFront, "kyc/front-2.jpg")
	upload(entities.DocumentSelfie, "kyc/selfie.jpg")

	docs, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, []entities.DocumentType{entities.DocumentDNIBack}, entities.MissingDocuments(docs))
	for _, d := range docs {
		if d.DocumentType == entities.DocumentDNIFront {
			require.Equal(t, "kyc/front-2.jpg", d.FileURL)
		}
	}

	n, err := repo.MarkVerified(ctx, userID, adminID, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	docs, err = repo.ListByUsers(ctx, []uuid.UUID{userID, uuid.New()})
	require.NoError(t, err)
	for _, d := range docs {
		require.True(t, d.Verified)
		require.Equal(t, adminID.String(), d.VerifiedBy.String)
	}

	// verified documents are not replaced
	require.NoError(t, repo.DeleteUnverified(ctx, userID, entities.DocumentSelfie))
	docs, err = repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	empty, err := repo.ListByUsers(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
