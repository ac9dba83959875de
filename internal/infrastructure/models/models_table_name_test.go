package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "auth_credentials", AuthCredential{}.TableName())
	assert.Equal(t, "kyc_documents", KYCDocument{}.TableName())
	assert.Equal(t, "exchange_rates", ExchangeRate{}.TableName())
	assert.Equal(t, "orders", Order{}.TableName())
	assert.Equal(t, "notifications", Notification{}.TableName())
	assert.Equal(t, "audit_logs", AuditLog{}.TableName())
	assert.Len(t, All(), 7)
}
