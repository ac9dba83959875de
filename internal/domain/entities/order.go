package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// OrderType is the direction of the exchange
type OrderType string

const (
	OrderTypeSolesToBolivares OrderType = "soles_to_bolivares"
	OrderTypeBolivaresToSoles OrderType = "bolivares_to_soles"
)

// Valid reports whether t is a known direction.
func (t OrderType) Valid() bool {
	return t == OrderTypeSolesToBolivares || t == OrderTypeBolivaresToSoles
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPaymentUploaded OrderStatus = "payment_uploaded"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// OpenOrderStatuses are the statuses counted as "pending" on dashboards.
var OpenOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusPaymentUploaded, OrderStatusConfirmed}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusPaymentUploaded, OrderStatusCancelled},
	OrderStatusPaymentUploaded: {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:       {OrderStatusCompleted},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaymentUploaded, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order is a client's exchange request
type Order struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	ClientID          uuid.UUID       `json:"client_id"`
	OrderType         OrderType       `json:"order_type"`
	AmountSend        decimal.Decimal `json:"amount_send"`
	AmountReceive     decimal.Decimal `json:"amount_receive"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	Status            OrderStatus     `json:"status"`
	SenderName        string          `json:"sender_name"`
	SenderBank        string          `json:"sender_bank"`
	SenderAccount     string          `json:"sender_account"`
	ReceiverName      string          `json:"receiver_name"`
	ReceiverBank      string          `json:"receiver_bank"`
	ReceiverAccount   string          `json:"receiver_account"`
	ReceiverDocument  string          `json:"receiver_document"`
	PaymentProofURL   null.String     `json:"payment_proof_url"`
	PaymentUploadedAt null.Time       `json:"payment_uploaded_at"`
	ConfirmedBy       null.String     `json:"confirmed_by"`
	ConfirmedAt       null.Time       `json:"confirmed_at"`
	CompletedAt       null.Time       `json:"completed_at"`
	CancelledAt       null.Time       `json:"cancelled_at"`
	ClientNotes       null.String     `json:"client_notes"`
	AdminNotes        null.String     `json:"admin_notes"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Client *User `json:"client,omitempty"`
}

// CreateOrderInput is the client request body for a new order. ExchangeRate
// is the quote the client saw; when present it must match the active rate.
type CreateOrderInput struct {
	OrderType        OrderType        `json:"orderType" binding:"required,oneof=soles_to_bolivares bolivares_to_soles"`
	AmountSend       decimal.Decimal  `json:"amountSend" binding:"required,gt=0"`
	AmountReceive    *decimal.Decimal `json:"amountReceive" binding:"omitempty,gt=0"`
	ExchangeRate     *decimal.Decimal `json:"exchangeRate" binding:"omitempty,gt=0"`
	SenderName       string           `json:"senderName" binding:"required,max=120"`
	SenderBank       string           `json:"senderBank" binding:"required,max=120"`
	SenderAccount    string           `json:"senderAccount" binding:"required,max=64"`
	ReceiverName     string           `json:"receiverName" binding:"required,max=120"`
	ReceiverBank     string           `json:"receiverBank" binding:"required,max=120"`
	ReceiverAccount  string           `json:"receiverAccount" binding:"required,max=64"`
	ReceiverDocument string           `json:"receiverDocument" binding:"required,max=32"`
	ClientNotes      string           `json:"clientNotes" binding:"max=1000"`
}

// CreateOrderResponse is returned after a successful creation
type CreateOrderResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"order_number"`
	Order       *Order `json:"order"`
}

// UpdateOrderStatusInput is the admin request body for a status change
type UpdateOrderStatusInput struct {
	Status     OrderStatus `json:"status" binding:"required,oneof=pending payment_uploaded confirmed completed cancelled"`
	AdminNotes *string     `json:"admin_notes" binding:"omitempty,max=1000"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	ClientID      *uuid.UUID
	Status        OrderStatus
	Search        string
	CreatedBefore *time.Time
	WithClient    bool
	Limit         int
	Offset        int
}

// OrderStats is the per-client dashboard summary
type OrderStats struct {
	TotalOrders     int64 `json:"totalOrders"`
	PendingOrders   int64 `json:"pendingOrders"`
	CompletedOrders int64 `json:"completedOrders"`
}

// CalculateReceive returns amount × rate rounded to cents.
func CalculateReceive(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
