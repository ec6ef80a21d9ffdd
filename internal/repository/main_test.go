package repository_test

import (
	"context"
	"log"
	"os"
	"testing"

	"go-gin-event-booking/internal/testutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testDB 為 nil 代表沒有測試 DB，需要 DB 的測試會 skip
var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, cleanup, err := testutil.Setup()
	if err != nil {
		log.Printf("repository integration tests disabled: %v", err)
	} else {
		testDB = pool
	}

	code := m.Run()
	if cleanup != nil {
		cleanup()
	}

	os.Exit(code)
}

// setupTestWithTransaction 使用 Transaction Rollback 方式，測試結束後資料不會留下
func setupTestWithTransaction(t *testing.T) (pgx.Tx, func()) {
	t.Helper()
	testutil.RequireDB(t, testDB)
	ctx := context.Background()

	tx, err := testDB.Begin(ctx)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	cleanup := func() {
		if err := tx.Rollback(ctx); err != nil {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}

	return tx, cleanup
}
