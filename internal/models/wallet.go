package models

import "time"

// Tipe transaksi wallet. Ledger-nya append-only:
// sekali tercatat tidak pernah diubah/dihapus.
const (
	TxAddition = "ADDITION" // Kredit hasil request COMPLETED, wajib ada RequestID
	TxWithdraw = "WITHDRAW" // Penarikan poin, RequestID selalu kosong
)

type Wallet struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // Poin, tidak boleh minus
	UpdatedAt time.Time `json:"updated_at"`

	// Relasi ke History Transaksi
	Transactions []WalletTransaction `gorm:"foreignKey:WalletID" json:"transactions,omitempty"`
}

type WalletTransaction struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	WalletID  uint64    `gorm:"not null;index" json:"wallet_id"`
	RequestID *uint64   `gorm:"uniqueIndex" json:"request_id,omitempty"` // Unique: satu request maksimal satu kredit
	Amount    int64     `gorm:"not null" json:"amount"`                  // Selalu positif, arah ditentukan Type
	Type      string    `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type WithdrawInput struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}
