package usecases_test

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/usecases"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	users  *MockUserRepository
	orders *MockOrderRepository
	rates  *MockExchangeRateRepository
	docs   *MockKYCDocumentRepository
	notes  *MockNotificationRepository
	audits *MockAuditLogRepository
	uow    *MockUnitOfWork
	store  *memoryBlobStore
	events *recordingEmitter

	adminID uuid.UUID

	audit         *usecases.AuditUsecase
	notifications *usecases.NotificationUsecase
}

func newFixture() *fixture {
	f := &fixture{
		users:   new(MockUserRepository),
		orders:  new(MockOrderRepository),
		rates:   new(MockExchangeRateRepository),
		docs:    new(MockKYCDocumentRepository),
		notes:   new(MockNotificationRepository),
		audits:  new(MockAuditLogRepository),
		uow:     new(MockUnitOfWork),
		store:   newMemoryBlobStore(),
		events:  &recordingEmitter{},
		adminID: uuid.New(),
	}
	f.uow.On("Do", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notes.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.users.On("ListIDsByRole", mock.Anything, entities.UserRoleAdmin).Return([]uuid.UUID{f.adminID}, nil).Maybe()

	f.audit = usecases.NewAuditUsecase(f.audits)
	f.notifications = usecases.NewNotificationUsecase(f.notes, f.users, f.events)
	return f
}

func (f *fixture) orderUsecase() *usecases.OrderUsecase {
	return usecases.NewOrderUsecase(f.orders, f.users, f.rates, f.uow, f.audit, f.notifications, f.events, f.store,
		usecases.OrderUploadConfig{Bucket: "payment-proofs", MaxBytes: 1 << 20})
}

func (f *fixture) kycUsecase() *usecases.KYCUsecase {
	return usecases.NewKYCUsecase(f.users, f.docs, f.uow, f.audit, f.notifications, f.events, f.store,
		usecases.KYCUploadConfig{Bucket: "kyc-documents", MaxBytes: 1 << 20})
}

func (f *fixture) rateUsecase() *usecases.RateUsecase {
	return usecases.NewRateUsecase(f.rates, f.uow, f.audit, f.events,
		decimal.RequireFromString("13.5"), decimal.RequireFromString("0.0741"))
}

// notifiedUsers returns the recipients of every notification created so far.
func (f *fixture) notifiedUsers() []uuid.UUID {
	var ids []uuid.UUID
	for _, call := range f.notes.Calls {
		if call.Method != "Create" {
			continue
		}
		ids = append(ids, call.Arguments.Get(1).(*entities.Notification).UserID)
	}
	return ids
}

func (f *fixture) auditActions() []string {
	var actions []string
	for _, call := range f.audits.Calls {
		if call.Method != "Create" {
			continue
		}
		actions = append(actions, call.Arguments.Get(1).(*entities.AuditLog).Action)
	}
	return actions
}

func activeRate() *entities.ExchangeRate {
	return &entities.ExchangeRate{
		ID:               uuid.New(),
		SolesToBolivares: decimal.RequireFromString("13.5"),
		BolivaresToSoles: decimal.RequireFromString("0.0741"),
		IsActive:         true,
	}
}

func client(status entities.UserStatus) *entities.User {
	return &entities.User{
		ID:     uuid.New(),
		Email:  "cliente@mail.com",
		Role:   entities.UserRoleClient,
		Status: status,
	}
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}
