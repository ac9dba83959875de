package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Audit actions
const (
	AuditRatePublished     = "rate.publish"
	AuditOrderCreated      = "order.create"
	AuditOrderStatus       = "order.status"
	AuditOrderPaymentProof = "order.payment_proof"
	AuditKYCApproved       = "kyc.approve"
	AuditKYCRejected       = "kyc.reject"
	AuditUserStatus        = "user.status"
)

// AuditLog records who changed what
type AuditLog struct {
	ID        uuid.UUID   `json:"id"`
	UserID    null.String `json:"user_id"`
	Action    string      `json:"action"`
	TableName string      `json:"table_name"`
	RecordID  string      `json:"record_id"`
	OldValues null.JSON   `json:"old_values"`
	NewValues null.JSON   `json:"new_values"`
	IPAddress null.String `json:"ip_address"`
	UserAgent null.String `json:"user_agent"`
	CreatedAt time.Time   `json:"created_at"`
}
