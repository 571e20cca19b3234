package store

import (
	"context"
	"errors"
	"time"
)

// Error level store. Service yang menerjemahkan ke error bisnis.
var (
	ErrNotFound          = errors.New("store: record not found")
	ErrInsufficientFunds = errors.New("store: insufficient funds")
)

// Semua call ke DB dikasih timeout biar tidak ada operasi yang
// nge-hang tanpa batas (request lifecycle maupun ledger).
const queryTimeout = 3 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// retryRead mengulang SEKALI kalau deadline habis. Hanya dipakai untuk
// operasi baca yang idempotent (nearby, saldo, history). Operasi tulis
// (claim, ledger) tidak pernah di-retry otomatis: efeknya belum tentu
// belum terjadi.
func retryRead(ctx context.Context, fn func(context.Context) error) error {
	tctx, cancel := withTimeout(ctx)
	err := fn(tctx)
	cancel()
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	tctx, cancel = withTimeout(ctx)
	defer cancel()
	return fn(tctx)
}
