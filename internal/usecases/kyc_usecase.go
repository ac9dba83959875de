package usecases

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/internal/infrastructure/storage"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/metrics"
	"solbol.backend/pkg/utils"
)

// KYCUploadConfig controls where identity documents are stored
type KYCUploadConfig struct {
	Bucket   string
	MaxBytes int64
}

// KYCUsecase handles identity verification
type KYCUsecase struct {
	userRepo      repositories.UserRepository
	docRepo       repositories.KYCDocumentRepository
	uow           repositories.UnitOfWork
	audit         *AuditUsecase
	notifications *NotificationUsecase
	events        EventEmitter
	store         storage.BlobStore
	upload        KYCUploadConfig
}

// NewKYCUsecase creates a new KYC usecase
func NewKYCUsecase(
	userRepo repositories.UserRepository,
	docRepo repositories.KYCDocumentRepository,
	uow repositories.UnitOfWork,
	audit *AuditUsecase,
	notifications *NotificationUsecase,
	events EventEmitter,
	store storage.BlobStore,
	upload KYCUploadConfig,
) *KYCUsecase {
	return &KYCUsecase{
		userRepo:      userRepo,
		docRepo:       docRepo,
		uow:           uow,
		audit:         audit,
		notifications: notifications,
		events:        emitterOrNoop(events),
		store:         store,
		upload:        upload,
	}
}

// Upload stores one identity document for the caller, replacing any
// unverified document of the same type.
func (u *KYCUsecase) Upload(ctx context.Context, userID uuid.UUID, docType entities.DocumentType, file *multipart.FileHeader) (*entities.KYCDocument, error) {
	if !docType.Valid() {
		return nil, domainerrors.BadRequest("invalid document type")
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != entities.UserStatusPendingKYC {
		return nil, domainerrors.Conflict("documents can only be uploaded while verification is pending")
	}

	upload, err := storage.ReadUpload(file, u.upload.MaxBytes, storage.DocumentTypes)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("kyc/%s/%s-%d%s", userID, docType, time.Now().UnixMilli(), upload.Extension)
	url, err := u.store.Put(ctx, u.upload.Bucket, key, upload.ContentType, upload.Reader(), upload.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &entities.KYCDocument{
		ID:           utils.GenerateUUIDv7(),
		UserID:       userID,
		DocumentType: docType,
		FileURL:      url,
		UploadedAt:   time.Now().UTC(),
	}
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.docRepo.DeleteUnverified(txCtx, userID, docType); err != nil {
			return err
		}
		return u.docRepo.Create(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "KYC document uploaded",
		zap.String("user_id", userID.String()),
		zap.String("document_type", string(docType)),
	)
	u.events.Emit(ctx, changeEvent(ctx, entities.TableKYCDocuments, entities.ChangeInsert, doc.ID, ownerOf(userID), doc, nil))

	docs, err := u.docRepo.ListByUser(ctx, userID)
	if err == nil && len(entities.MissingDocuments(docs)) == 0 {
		u.notifications.notifyAdminsQuietly(ctx, "Verificación pendiente",
			fmt.Sprintf("%s completó la carga de documentos", user.Email),
			entities.NotificationInfo)
	}
	return doc, nil
}

// Status reports the caller's onboarding progress
func (u *KYCUsecase) Status(ctx context.Context, userID uuid.UUID) (*entities.KYCStatusView, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := u.docRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*entities.KYCDocument{}
	}
	missing := entities.MissingDocuments(docs)
	return &entities.KYCStatusView{
		Status:    user.Status,
		Documents: docs,
		Missing:   missing,
		Complete:  len(missing) == 0,
	}, nil
}

// Pending lists users awaiting review, oldest first, with their documents
func (u *KYCUsecase) Pending(ctx context.Context) ([]*entities.PendingKYCUser, error) {
	users, err := u.userRepo.ListByStatus(ctx, entities.UserRoleClient, entities.UserStatusPendingKYC)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, usr := range users {
		ids = append(ids, usr.ID)
	}
	docs, err := u.docRepo.ListByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]*entities.KYCDocument, len(users))
	for _, d := range docs {
		byUser[d.UserID] = append(byUser[d.UserID], d)
	}

	result := make([]*entities.PendingKYCUser, 0, len(users))
	for _, usr := range users {
		userDocs := byUser[usr.ID]
		if userDocs == nil {
			userDocs = []*entities.KYCDocument{}
		}
		result = append(result, &entities.PendingKYCUser{User: usr, Documents: userDocs})
	}
	return result, nil
}

// Approve activates a pending user and marks their documents verified.
func (u *KYCUsecase) Approve(ctx context.Context, adminID, userID uuid.UUID) (*entities.User, error) {
	now := time.Now().UTC()
	old, updated, err := u.decide(ctx, adminID, userID, entities.AuditKYCApproved, func(txCtx context.Context, user *entities.User) error {
		if err := u.userRepo.UpdateStatus(txCtx, userID, entities.UserStatusActive, &now); err != nil {
			return err
		}
		if _, err := u.docRepo.MarkVerified(txCtx, userID, adminID, now); err != nil {
			return err
		}
		user.Status = entities.UserStatusActive
		user.ApprovedAt = null.TimeFrom(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.KYCDecisions.WithLabelValues("approved").Inc()
	u.afterDecision(ctx, old, updated)
	u.notifications.notifyQuietly(ctx, userID, "Cuenta verificada",
		"Tu identidad fue verificada. Ya puedes crear órdenes de cambio.",
		entities.NotificationSuccess)
	return updated, nil
}

// Reject suspends a pending user and tells them why.
func (u *KYCUsecase) Reject(ctx context.Context, adminID, userID uuid.UUID, reason string) (*entities.User, error) {
	old, updated, err := u.decide(ctx, adminID, userID, entities.AuditKYCRejected, func(txCtx context.Context, user *entities.User) error {
		if err := u.userRepo.UpdateStatus(txCtx, userID, entities.UserStatusSuspended, nil); err != nil {
			return err
		}
		user.Status = entities.UserStatusSuspended
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.KYCDecisions.WithLabelValues("rejected").Inc()
	u.afterDecision(ctx, old, updated)

	message := "No pudimos verificar tu identidad."
	if reason != "" {
		message += " Motivo: " + reason
	}
	u.notifications.notifyQuietly(ctx, userID, "Verificación rechazada", message, entities.NotificationError)
	return updated, nil
}

func (u *KYCUsecase) decide(ctx context.Context, adminID, userID uuid.UUID, action string, apply func(context.Context, *entities.User) error) (*entities.User, *entities.User, error) {
	var old, updated *entities.User
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		user, err := u.userRepo.GetByIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}
		if user.Status != entities.UserStatusPendingKYC {
			return domainerrors.Conflict("user is not pending verification")
		}

		before := *user
		if err := apply(txCtx, user); err != nil {
			return err
		}
		old, updated = &before, user
		return u.audit.Record(txCtx, adminID, action, entities.TableUsers, userID,
			map[string]interface{}{"status": before.Status},
			map[string]interface{}{"status": user.Status})
	})
	if err != nil {
		return nil, nil, err
	}
	return old, updated, nil
}

func (u *KYCUsecase) afterDecision(ctx context.Context, old, updated *entities.User) {
	logger.Info(ctx, "KYC decision recorded",
		zap.String("user_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
	)

	events := []*entities.ChangeEvent{
		changeEvent(ctx, entities.TableUsers, entities.ChangeUpdate, updated.ID, ownerOf(updated.ID), updated, old),
	}
	if updated.Status == entities.UserStatusActive {
		if docs, err := u.docRepo.ListByUser(ctx, updated.ID); err == nil {
			for _, d := range docs {
				events = append(events, changeEvent(ctx, entities.TableKYCDocuments, entities.ChangeUpdate, d.ID, ownerOf(d.UserID), d, nil))
			}
		}
	}
	u.events.Emit(ctx, events...)
}
