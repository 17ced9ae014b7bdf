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

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		kaiapay_id TEXT UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPaymentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		receiver_user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		currency TEXT,
		amount TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		from_address TEXT NOT NULL,
		to_address TEXT NOT NULL,
		token TEXT NOT NULL,
		amount TEXT NOT NULL,
		sender_alias TEXT,
		recipient_alias TEXT,
		type TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		deadline DATETIME,
		can_cancel BOOLEAN NOT NULL DEFAULT 0,
		tx_hash TEXT,
		cancel_tx_hash TEXT,
		memo TEXT,
		payment_id TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT tx_hash_unique UNIQUE (tx_hash)
	);`)
}
