package database

import (
	"context"

	"go-gin-event-booking/internal/database"
)

// FakeTransactor 直接執行 fn，tx 為 nil；搭配 repository mock 使用
type FakeTransactor struct {
	Calls int
	// Err 不為 nil 時模擬 commit 失敗
	Err error
}

func (f *FakeTransactor) WithinTx(ctx context.Context, fn database.TxFunc) error {
	f.Calls++
	if err := fn(ctx, nil); err != nil {
		return err
	}
	return f.Err
}
