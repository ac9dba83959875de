package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		full_name TEXT,
		phone TEXT,
		country TEXT,
		approved_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE auth_credentials (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME
	);`)
}

func createKYCTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE kyc_documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		document_type TEXT NOT NULL,
		file_url TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT 0,
		verified_at DATETIME,
		verified_by TEXT
	);`)
}

func createRateTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE exchange_rates (
		id TEXT PRIMARY KEY,
		soles_to_bolivares TEXT NOT NULL,
		bolivares_to_soles TEXT NOT NULL,
		published_by TEXT NOT NULL,
		published_at DATETIME NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 0
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_exchange_rates_single_active ON exchange_rates(is_active) WHERE is_active;`)
}

func createOrderTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL,
		order_type TEXT NOT NULL,
		amount_send TEXT NOT NULL,
		amount_receive TEXT NOT NULL,
		exchange_rate TEXT NOT NULL,
		status TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		sender_bank TEXT NOT NULL,
		sender_account TEXT NOT NULL,
		receiver_name TEXT NOT NULL,
		receiver_bank TEXT NOT NULL,
		receiver_account TEXT NOT NULL,
		receiver_document TEXT NOT NULL,
		payment_proof_url TEXT,
		payment_uploaded_at DATETIME,
		confirmed_by TEXT,
		confirmed_at DATETIME,
		completed_at DATETIME,
		cancelled_at DATETIME,
		client_notes TEXT,
		admin_notes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createNotificationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		"read" BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME
	);`)
}

func createAuditLogTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		action TEXT NOT NULL,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		old_values TEXT,
		new_values TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at DATETIME
	);`)
}
