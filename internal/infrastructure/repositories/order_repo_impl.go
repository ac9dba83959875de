package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/infrastructure/models"
)

// OrderRepository implements order data operations
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *entities.Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	m, err := r.toModel(order)
	if err != nil {
		return err
	}
	return mapNotFound(GetDB(ctx, r.db).Create(m).Error)
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Order, error) {
	var m models.Order
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Order, error) {
	db := GetDB(ctx, r.db)
	if inTx(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m models.Order
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

// Update persists the mutable lifecycle columns
func (r *OrderRepository) Update(ctx context.Context, order *entities.Order) error {
	order.UpdatedAt = time.Now()
	confirmedBy, err := nullToUUIDPtr(order.ConfirmedBy)
	if err != nil {
		return err
	}

	result := GetDB(ctx, r.db).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":              string(order.Status),
			"payment_proof_url":   order.PaymentProofURL.Ptr(),
			"payment_uploaded_at": order.PaymentUploadedAt.Ptr(),
			"confirmed_by":        confirmedBy,
			"confirmed_at":        order.ConfirmedAt.Ptr(),
			"completed_at":        order.CompletedAt.Ptr(),
			"cancelled_at":        order.CancelledAt.Ptr(),
			"admin_notes":         order.AdminNotes.Ptr(),
			"updated_at":          order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List returns a page of orders, newest first, and the total match count
func (r *OrderRepository) List(ctx context.Context, filter entities.OrderFilter) ([]*entities.Order, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := r.applyFilter(db.Model(&models.Order{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.applyFilter(db.Model(&models.Order{}), filter).Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var ms []models.Order
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*entities.Order, 0, len(ms))
	for i := range ms {
		orders = append(orders, r.toEntity(&ms[i]))
	}

	if filter.WithClient && len(orders) > 0 {
		if err := r.attachClients(ctx, orders); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// CountByStatus counts orders, optionally for one client, in any of statuses
// (all statuses when none are given)
func (r *OrderRepository) CountByStatus(ctx context.Context, clientID *uuid.UUID, statuses ...entities.OrderStatus) (int64, error) {
	q := GetDB(ctx, r.db).Model(&models.Order{})
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		q = q.Where("status IN ?", values)
	}

	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListStalePending returns pending orders created before the cutoff, oldest first
func (r *OrderRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*entities.Order, error) {
	q := GetDB(ctx, r.db).
		Where("status = ? AND created_at < ?", string(entities.OrderStatusPending), before).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var ms []models.Order
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]*entities.Order, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, nil
}

// ActivityByClient aggregates order count and latest order time per client
func (r *OrderRepository) ActivityByClient(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID]entities.ClientOrderActivity, error) {
	out := make(map[uuid.UUID]entities.ClientOrderActivity, len(clientIDs))
	if len(clientIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ClientID    uuid.UUID
		TotalOrders int64
		LastOrder   aggTime
	}
	if err := GetDB(ctx, r.db).Model(&models.Order{}).
		Select("client_id, COUNT(*) AS total_orders, MAX(created_at) AS last_order").
		Where("client_id IN ?", clientIDs).
		Group("client_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		activity := entities.ClientOrderActivity{ClientID: row.ClientID, TotalOrders: row.TotalOrders}
		if row.LastOrder.Valid {
			last := row.LastOrder.Time
			activity.LastOrderDate = &last
		}
		out[row.ClientID] = activity
	}
	return out, nil
}

func (r *OrderRepository) applyFilter(q *gorm.DB, filter entities.OrderFilter) *gorm.DB {
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("LOWER(order_number) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at < ?", *filter.CreatedBefore)
	}
	return q
}

func (r *OrderRepository) attachClients(ctx context.Context, orders []*entities.Order) error {
	ids := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]bool)
	for _, o := range orders {
		if !seen[o.ClientID] {
			seen[o.ClientID] = true
			ids = append(ids, o.ClientID)
		}
	}

	var users []models.User
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return err
	}

	userRepo := &UserRepository{}
	byID := make(map[uuid.UUID]*entities.User, len(users))
	for i := range users {
		byID[users[i].ID] = userRepo.toEntity(&users[i])
	}
	for _, o := range orders {
		o.Client = byID[o.ClientID]
	}
	return nil
}

func (r *OrderRepository) toModel(o *entities.Order) (*models.Order, error) {
	confirmedBy, err := nullToUUIDPtr(o.ConfirmedBy)
	if err != nil {
		return nil, err
	}
	return &models.Order{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		ClientID:          o.ClientID,
		OrderType:         string(o.OrderType),
		AmountSend:        o.AmountSend,
		AmountReceive:     o.AmountReceive,
		ExchangeRate:      o.ExchangeRate,
		Status:            string(o.Status),
		SenderName:        o.SenderName,
		SenderBank:        o.SenderBank,
		SenderAccount:     o.SenderAccount,
		ReceiverName:      o.ReceiverName,
		ReceiverBank:      o.ReceiverBank,
		ReceiverAccount:   o.ReceiverAccount,
		ReceiverDocument:  o.ReceiverDocument,
		PaymentProofURL:   o.PaymentProofURL.Ptr(),
		PaymentUploadedAt: o.PaymentUploadedAt.Ptr(),
		ConfirmedBy:       confirmedBy,
		ConfirmedAt:       o.ConfirmedAt.Ptr(),
		CompletedAt:       o.CompletedAt.Ptr(),
		CancelledAt:       o.CancelledAt.Ptr(),
		ClientNotes:       o.ClientNotes.Ptr(),
		AdminNotes:        o.AdminNotes.Ptr(),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}, nil
}

func (r *OrderRepository) toEntity(m *models.Order) *entities.Order {
	return &entities.Order{
		ID:                m.ID,
		OrderNumber:       m.OrderNumber,
		ClientID:          m.ClientID,
		OrderType:         entities.OrderType(m.OrderType),
		AmountSend:        m.AmountSend,
		AmountReceive:     m.AmountReceive,
		ExchangeRate:      m.ExchangeRate,
		Status:            entities.OrderStatus(m.Status),
		SenderName:        m.SenderName,
		SenderBank:        m.SenderBank,
		SenderAccount:     m.SenderAccount,
		ReceiverName:      m.ReceiverName,
		ReceiverBank:      m.ReceiverBank,
		ReceiverAccount:   m.ReceiverAccount,
		ReceiverDocument:  m.ReceiverDocument,
		PaymentProofURL:   null.StringFromPtr(m.PaymentProofURL),
		PaymentUploadedAt: null.TimeFromPtr(m.PaymentUploadedAt),
		ConfirmedBy:       uuidPtrToNull(m.ConfirmedBy),
		ConfirmedAt:       null.TimeFromPtr(m.ConfirmedAt),
		CompletedAt:       null.TimeFromPtr(m.CompletedAt),
		CancelledAt:       null.TimeFromPtr(m.CancelledAt),
		ClientNotes:       null.StringFromPtr(m.ClientNotes),
		AdminNotes:        null.StringFromPtr(m.AdminNotes),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
