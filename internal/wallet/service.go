package wallet

import (
	"context"
	"errors"
	"fmt"

	"daurulang-backend/internal/models"
	"daurulang-backend/internal/store"
)

var (
	ErrValidation          = errors.New("input tidak valid")
	ErrInsufficientBalance = errors.New("saldo tidak cukup")
)

// Ledger adalah primitive wallet yang dibutuhkan service ini.
// Kredit dari request selesai tidak lewat sini (lihat dispatch).
type Ledger interface {
	GetOrCreate(ctx context.Context, userID uint64) (*models.Wallet, error)
	DebitAndLog(ctx context.Context, userID uint64, amount int64) (*models.WalletTransaction, error)
	Transactions(ctx context.Context, userID uint64) ([]models.WalletTransaction, error)
}

type Service struct {
	ledger Ledger
}

func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

func (s *Service) GetBalance(ctx context.Context, userID uint64) (*models.Wallet, error) {
	return s.ledger.GetOrCreate(ctx, userID)
}

// Withdraw menarik poin. Saldo dicek di dalam primitive atomik store,
// jadi withdraw barengan tidak bisa bikin saldo minus. Penarikan
// langsung final begitu tercatat di ledger.
func (s *Service) Withdraw(ctx context.Context, userID uint64, amount int64) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: jumlah harus positif", ErrValidation)
	}

	trx, err := s.ledger.DebitAndLog(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	return trx, nil
}

func (s *Service) Transactions(ctx context.Context, userID uint64) ([]models.WalletTransaction, error) {
	return s.ledger.Transactions(ctx, userID)
}
