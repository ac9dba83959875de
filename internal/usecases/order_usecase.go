package usecases

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
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

const (
	orderNumberAttempts = 3
	staleOrderBatch     = 100
)

// OrderUploadConfig controls where payment proofs are stored
type OrderUploadConfig struct {
	Bucket   string
	MaxBytes int64
}

// OrderQuery narrows order listings
type OrderQuery struct {
	Status entities.OrderStatus
	Search string
	Page   int
	Limit  int
}

// OrderUsecase implements the order lifecycle
type OrderUsecase struct {
	orderRepo     repositories.OrderRepository
	userRepo      repositories.UserRepository
	rateRepo      repositories.ExchangeRateRepository
	uow           repositories.UnitOfWork
	audit         *AuditUsecase
	notifications *NotificationUsecase
	events        EventEmitter
	store         storage.BlobStore
	upload        OrderUploadConfig
}

// NewOrderUsecase creates a new order usecase
func NewOrderUsecase(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	rateRepo repositories.ExchangeRateRepository,
	uow repositories.UnitOfWork,
	audit *AuditUsecase,
	notifications *NotificationUsecase,
	events EventEmitter,
	store storage.BlobStore,
	upload OrderUploadConfig,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		rateRepo:      rateRepo,
		uow:           uow,
		audit:         audit,
		notifications: notifications,
		events:        emitterOrNoop(events),
		store:         store,
		upload:        upload,
	}
}

// Create places a new pending order priced at the active rate.
func (u *OrderUsecase) Create(ctx context.Context, clientID uuid.UUID, input *entities.CreateOrderInput) (*entities.CreateOrderResponse, error) {
	if !input.OrderType.Valid() {
		return nil, domainerrors.BadRequest("invalid order type")
	}
	if !input.AmountSend.IsPositive() {
		return nil, domainerrors.BadRequest("amount must be greater than zero")
	}

	client, err := u.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch client.Status {
	case entities.UserStatusActive:
	case entities.UserStatusSuspended:
		return nil, domainerrors.ErrAccountSuspended
	default:
		return nil, domainerrors.ErrKYCPending
	}

	var order *entities.Order
	for attempt := 1; ; attempt++ {
		order, err = u.createOnce(ctx, clientID, input)
		if err == nil {
			break
		}
		if !errors.Is(err, domainerrors.ErrAlreadyExists) || attempt >= orderNumberAttempts {
			return nil, err
		}
		logger.Warn(ctx, "Order number collision, retrying", zap.Int("attempt", attempt))
	}

	metrics.OrdersCreated.WithLabelValues(string(order.OrderType)).Inc()
	logger.Info(ctx, "Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("client_id", clientID.String()),
	)

	u.events.Emit(ctx, changeEvent(ctx, entities.TableOrders, entities.ChangeInsert, order.ID, ownerOf(clientID), order, nil))
	u.notifications.notifyAdminsQuietly(ctx, "Nueva orden",
		fmt.Sprintf("Nueva orden %s por %s", order.OrderNumber, order.AmountSend.StringFixed(2)),
		entities.NotificationInfo)

	return &entities.CreateOrderResponse{
		Success:     true,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Order:       order,
	}, nil
}

func (u *OrderUsecase) createOnce(ctx context.Context, clientID uuid.UUID, input *entities.CreateOrderInput) (*entities.Order, error) {
	var order *entities.Order
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		rate, err := u.rateRepo.GetActive(txCtx)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.ErrNoActiveRate
			}
			return err
		}

		applied := rate.RateFor(input.OrderType)
		if input.ExchangeRate != nil && !input.ExchangeRate.Equal(applied) {
			return domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeRateChanged,
				"exchange rate changed, review the new quote", domainerrors.ErrRateChanged).
				WithDetails(rate.ToCurrentRate())
		}

		order = &entities.Order{
			ID:               utils.GenerateUUIDv7(),
			OrderNumber:      utils.GenerateOrderNumber(),
			ClientID:         clientID,
			OrderType:        input.OrderType,
			AmountSend:       input.AmountSend,
			AmountReceive:    entities.CalculateReceive(input.AmountSend, applied),
			ExchangeRate:     applied,
			Status:           entities.OrderStatusPending,
			SenderName:       input.SenderName,
			SenderBank:       input.SenderBank,
			SenderAccount:    input.SenderAccount,
			ReceiverName:     input.ReceiverName,
			ReceiverBank:     input.ReceiverBank,
			ReceiverAccount:  input.ReceiverAccount,
			ReceiverDocument: input.ReceiverDocument,
		}
		if input.ClientNotes != "" {
			order.ClientNotes = null.StringFrom(input.ClientNotes)
		}

		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		return u.audit.Record(txCtx, clientID, entities.AuditOrderCreated, entities.TableOrders, order.ID, nil, order)
	})
	return order, err
}

// UploadPaymentProof stores the client's transfer receipt and moves the order
// to payment_uploaded.
func (u *OrderUsecase) UploadPaymentProof(ctx context.Context, clientID, orderID uuid.UUID, file *multipart.FileHeader) (*entities.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != clientID {
		return nil, domainerrors.ErrNotFound
	}
	if order.Status != entities.OrderStatusPending {
		return nil, invalidTransition(order.Status, entities.OrderStatusPaymentUploaded)
	}

	upload, err := storage.ReadUpload(file, u.upload.MaxBytes, storage.DocumentTypes)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s-%d-%s", orderID, time.Now().UnixMilli(), storage.SanitizeFilename(upload.Filename))
	url, err := u.store.Put(ctx, u.upload.Bucket, key, upload.ContentType, upload.Reader(), upload.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to store payment proof: %w", err)
	}

	old, updated, err := u.transition(ctx, clientID, orderID, entities.AuditOrderPaymentProof, func(o *entities.Order) error {
		if o.ClientID != clientID {
			return domainerrors.ErrNotFound
		}
		if o.Status != entities.OrderStatusPending {
			return invalidTransition(o.Status, entities.OrderStatusPaymentUploaded)
		}
		o.Status = entities.OrderStatusPaymentUploaded
		o.PaymentProofURL = null.StringFrom(url)
		o.PaymentUploadedAt = null.TimeFrom(time.Now().UTC())
		return nil
	})
	if err != nil {
		if delErr := u.store.Delete(context.WithoutCancel(ctx), u.upload.Bucket, key); delErr != nil {
			logger.Warn(ctx, "Orphaned payment proof left in storage",
				zap.String("bucket", u.upload.Bucket),
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	u.afterTransition(ctx, old, updated)
	u.notifications.notifyAdminsQuietly(ctx, "Comprobante recibido",
		fmt.Sprintf("La orden %s tiene un comprobante de pago para revisar", updated.OrderNumber),
		entities.NotificationInfo)
	return updated, nil
}

// UpdateStatus applies an admin decision to an order.
func (u *OrderUsecase) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, input *entities.UpdateOrderStatusInput) (*entities.Order, error) {
	if !input.Status.Valid() {
		return nil, domainerrors.BadRequest("invalid status")
	}
	if input.Status == entities.OrderStatusPaymentUploaded {
		return nil, domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeInvalidTransition,
			"payment_uploaded is set when the client uploads a payment proof", domainerrors.ErrInvalidTransition)
	}

	old, updated, err := u.transition(ctx, adminID, orderID, entities.AuditOrderStatus, func(o *entities.Order) error {
		if !o.Status.CanTransitionTo(input.Status) {
			return invalidTransition(o.Status, input.Status)
		}

		now := time.Now().UTC()
		o.Status = input.Status
		switch input.Status {
		case entities.OrderStatusConfirmed:
			o.ConfirmedBy = null.StringFrom(adminID.String())
			o.ConfirmedAt = null.TimeFrom(now)
		case entities.OrderStatusCompleted:
			o.CompletedAt = null.TimeFrom(now)
		case entities.OrderStatusCancelled:
			o.CancelledAt = null.TimeFrom(now)
		}
		if input.AdminNotes != nil {
			o.AdminNotes = null.NewString(*input.AdminNotes, *input.AdminNotes != "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.afterTransition(ctx, old, updated)
	title, message, typ := statusNotification(updated)
	u.notifications.notifyQuietly(ctx, updated.ClientID, title, message, typ)
	return updated, nil
}

// Cancel lets a client withdraw their own pending order.
func (u *OrderUsecase) Cancel(ctx context.Context, clientID, orderID uuid.UUID) (*entities.Order, error) {
	old, updated, err := u.transition(ctx, clientID, orderID, entities.AuditOrderStatus, func(o *entities.Order) error {
		if o.ClientID != clientID {
			return domainerrors.ErrNotFound
		}
		if o.Status != entities.OrderStatusPending {
			return invalidTransition(o.Status, entities.OrderStatusCancelled)
		}
		o.Status = entities.OrderStatusCancelled
		o.CancelledAt = null.TimeFrom(time.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.afterTransition(ctx, old, updated)
	u.notifications.notifyAdminsQuietly(ctx, "Orden cancelada",
		fmt.Sprintf("El cliente canceló la orden %s", updated.OrderNumber),
		entities.NotificationWarning)
	return updated, nil
}

// ExpireStale cancels pending orders created before now-ttl and returns how
// many were cancelled.
func (u *OrderUsecase) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	stale, err := u.orderRepo.ListStalePending(ctx, time.Now().Add(-ttl), staleOrderBatch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		old, updated, err := u.transition(ctx, uuid.Nil, candidate.ID, entities.AuditOrderStatus, func(o *entities.Order) error {
			if o.Status != entities.OrderStatusPending {
				return invalidTransition(o.Status, entities.OrderStatusCancelled)
			}
			o.Status = entities.OrderStatusCancelled
			o.CancelledAt = null.TimeFrom(time.Now().UTC())
			o.AdminNotes = null.StringFrom("Cancelada automáticamente por falta de pago")
			return nil
		})
		if err != nil {
			if errors.Is(err, domainerrors.ErrInvalidTransition) || errors.Is(err, domainerrors.ErrNotFound) {
				continue
			}
			return expired, err
		}

		expired++
		u.afterTransition(ctx, old, updated)
		u.notifications.notifyQuietly(ctx, updated.ClientID, "Orden vencida",
			fmt.Sprintf("La orden %s fue cancelada por no recibir el pago a tiempo", updated.OrderNumber),
			entities.NotificationWarning)
	}
	return expired, nil
}

// Get returns an order visible to viewer: admins see every order, clients
// only their own.
func (u *OrderUsecase) Get(ctx context.Context, viewer *entities.User, orderID uuid.UUID) (*entities.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && order.ClientID != viewer.ID {
		return nil, domainerrors.ErrNotFound
	}
	return order, nil
}

// ListForClient returns the client's orders, newest first
func (u *OrderUsecase) ListForClient(ctx context.Context, clientID uuid.UUID, query OrderQuery) ([]*entities.Order, utils.PaginationMeta, error) {
	filter := entities.OrderFilter{ClientID: &clientID, Status: query.Status, Search: query.Search}
	return u.list(ctx, filter, query)
}

// ListAll returns every order with the client profile attached
func (u *OrderUsecase) ListAll(ctx context.Context, query OrderQuery) ([]*entities.Order, utils.PaginationMeta, error) {
	filter := entities.OrderFilter{Status: query.Status, Search: query.Search, WithClient: true}
	return u.list(ctx, filter, query)
}

func (u *OrderUsecase) list(ctx context.Context, filter entities.OrderFilter, query OrderQuery) ([]*entities.Order, utils.PaginationMeta, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, utils.PaginationMeta{}, domainerrors.BadRequest("invalid status filter")
	}

	p := utils.GetPaginationParams(query.Page, query.Limit)
	filter.Limit = p.Limit
	filter.Offset = p.CalculateOffset()

	orders, total, err := u.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	if orders == nil {
		orders = []*entities.Order{}
	}
	return orders, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// ClientStats summarises a client's orders for the dashboard
func (u *OrderUsecase) ClientStats(ctx context.Context, clientID uuid.UUID) (*entities.OrderStats, error) {
	total, err := u.orderRepo.CountByStatus(ctx, &clientID)
	if err != nil {
		return nil, err
	}
	pending, err := u.orderRepo.CountByStatus(ctx, &clientID, entities.OpenOrderStatuses...)
	if err != nil {
		return nil, err
	}
	completed, err := u.orderRepo.CountByStatus(ctx, &clientID, entities.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	return &entities.OrderStats{TotalOrders: total, PendingOrders: pending, CompletedOrders: completed}, nil
}

// transition locks the order, lets mutate validate and change it, then
// persists and audits the change in one transaction.
func (u *OrderUsecase) transition(ctx context.Context, actor, orderID uuid.UUID, action string, mutate func(*entities.Order) error) (*entities.Order, *entities.Order, error) {
	var old, updated *entities.Order
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		order, err := u.orderRepo.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		before := *order
		if err := mutate(order); err != nil {
			return err
		}
		order.UpdatedAt = time.Now().UTC()
		if err := u.orderRepo.Update(txCtx, order); err != nil {
			return err
		}

		old, updated = &before, order
		return u.audit.Record(txCtx, actor, action, entities.TableOrders, order.ID,
			map[string]interface{}{"status": before.Status},
			map[string]interface{}{"status": order.Status})
	})
	if err != nil {
		return nil, nil, err
	}
	return old, updated, nil
}

func (u *OrderUsecase) afterTransition(ctx context.Context, old, updated *entities.Order) {
	metrics.OrderTransitions.WithLabelValues(string(updated.Status)).Inc()
	logger.Info(ctx, "Order status changed",
		zap.String("order_id", updated.ID.String()),
		zap.String("from", string(old.Status)),
		zap.String("to", string(updated.Status)),
	)
	u.events.Emit(ctx, changeEvent(ctx, entities.TableOrders, entities.ChangeUpdate, updated.ID, ownerOf(updated.ClientID), updated, old))
}

func invalidTransition(from, to entities.OrderStatus) error {
	return fmt.Errorf("cannot move order from %s to %s: %w", from, to, domainerrors.ErrInvalidTransition)
}

func statusNotification(o *entities.Order) (string, string, entities.NotificationType) {
	switch o.Status {
	case entities.OrderStatusConfirmed:
		return "Pago confirmado", fmt.Sprintf("Confirmamos el pago de tu orden %s", o.OrderNumber), entities.NotificationSuccess
	case entities.OrderStatusCompleted:
		return "Orden completada", fmt.Sprintf("Tu orden %s fue completada", o.OrderNumber), entities.NotificationSuccess
	case entities.OrderStatusCancelled:
		return "Orden cancelada", fmt.Sprintf("Tu orden %s fue cancelada", o.OrderNumber), entities.NotificationError
	default:
		return "Orden actualizada", fmt.Sprintf("Tu orden %s cambió a %s", o.OrderNumber, o.Status), entities.NotificationInfo
	}
}
