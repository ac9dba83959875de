package entities

import (
	"time"

	"github.com/google/uuid"
)

// AdminStats is the admin dashboard summary
type AdminStats struct {
	TotalUsers      int64         `json:"totalUsers"`
	PendingKYC      int64         `json:"pendingKYC"`
	TotalOrders     int64         `json:"totalOrders"`
	PendingOrders   int64         `json:"pendingOrders"`
	CompletedOrders int64         `json:"completedOrders"`
	ActiveRate      *ExchangeRate `json:"activeRate"`
}

// UserCounts counts client accounts by status
type UserCounts struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	PendingKYC int64 `json:"pending_kyc"`
	Suspended  int64 `json:"suspended"`
}

// UsersSummary backs the admin users overview
type UsersSummary struct {
	Counts          UserCounts `json:"counts"`
	RecentApprovals []*User    `json:"recent_approvals"`
}

// ApprovedUser is an active client with order activity
type ApprovedUser struct {
	*User
	TotalOrders   int64      `json:"total_orders"`
	LastOrderDate *time.Time `json:"last_order_date"`
}

// ClientOrderActivity is the per-client aggregate used by ApprovedUser
type ClientOrderActivity struct {
	ClientID      uuid.UUID
	TotalOrders   int64
	LastOrderDate *time.Time
}

// CheckUserResult answers whether an email has a profile
type CheckUserResult struct {
	Exists bool  `json:"exists"`
	User   *User `json:"user,omitempty"`
}
