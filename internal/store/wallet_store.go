package store

import (
	"context"
	"errors"

	"daurulang-backend/internal/models"

	"gorm.io/gorm"
)

// GormWalletStore mengelola saldo + ledger transaksi.
// Kredit hasil request selesai TIDAK lewat sini (itu bagian
// CompleteAndSettle biar satu transaksi dengan flip status).
type GormWalletStore struct {
	db *gorm.DB
}

func NewWalletStore(db *gorm.DB) *GormWalletStore {
	return &GormWalletStore{db: db}
}

// GetOrCreate mengambil wallet user, buatkan yang kosong kalau belum ada
// (user baru daftar belum punya wallet). Bacanya boleh di-retry;
// pembuatannya TIDAK: insert bukan operasi idempotent. FirstOrCreate
// di jalur create menangani dua pembuatan barengan lewat unique index
// di user_id.
func (s *GormWalletStore) GetOrCreate(ctx context.Context, userID uint64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := retryRead(ctx, func(tctx context.Context) error {
		return s.db.WithContext(tctx).
			Where("user_id = ?", userID).
			First(&wallet).Error
	})
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tctx, cancel := withTimeout(ctx)
	defer cancel()

	wallet = models.Wallet{UserID: userID}
	if err := s.db.WithContext(tctx).
		Where(models.Wallet{UserID: userID}).
		FirstOrCreate(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// DebitAndLog menarik poin dari wallet. Pengecekan saldo ada DI DALAM
// statement update (balance >= amount), jadi dua penarikan barengan
// tidak mungkin bikin saldo minus. Catatan ledger masuk di transaksi
// DB yang sama dengan pengurangan saldo.
func (s *GormWalletStore) DebitAndLog(ctx context.Context, userID uint64, amount int64) (*models.WalletTransaction, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	var trx models.WalletTransaction
	err := s.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientFunds // belum punya wallet = saldo 0
			}
			return err
		}

		res := tx.Model(&models.Wallet{}).
			Where("id = ? AND balance >= ?", wallet.ID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientFunds
		}

		trx = models.WalletTransaction{
			WalletID: wallet.ID,
			Amount:   amount,
			Type:     models.TxWithdraw,
			// RequestID sengaja kosong: withdraw tidak terikat request
		}
		return tx.Create(&trx).Error
	})
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

// Transactions mengambil history ledger milik satu user, terbaru duluan
func (s *GormWalletStore) Transactions(ctx context.Context, userID uint64) ([]models.WalletTransaction, error) {
	var trxs []models.WalletTransaction
	err := retryRead(ctx, func(tctx context.Context) error {
		trxs = nil
		return s.db.WithContext(tctx).
			Joins("JOIN wallets ON wallets.id = wallet_transactions.wallet_id").
			Where("wallets.user_id = ?", userID).
			Order("wallet_transactions.created_at desc").
			Find(&trxs).Error
	})
	return trxs, err
}
