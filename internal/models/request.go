package models

import "time"

// Status lifecycle request penjemputan.
// PENDING -> ASSIGNED -> IN_PROGRESS -> COMPLETED (final)
// PENDING/ASSIGNED -> CANCELLED (final juga, tidak bisa dibuka lagi)
const (
	StatusPending    = "PENDING"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

const (
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
)

// PickupRequest adalah pesanan penjemputan sampah daur ulang
type PickupRequest struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	RequestNo   string     `gorm:"unique;size:50" json:"request_no"`
	RequesterID uint64     `gorm:"not null;index" json:"requester_id"`
	CollectorID *uint64    `gorm:"index" json:"collector_id"` // Pointer karena bisa NULL (belum ada yang ambil)
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	Priority    string     `gorm:"size:10;not null;default:NORMAL" json:"priority"`
	// Titik jemput. Dikunci saat create, tidak pernah diubah lagi.
	// decimal(11,8) muat longitude sampai +-180
	Lat         float64    `gorm:"type:decimal(11,8);not null" json:"lat"`
	Lng         float64    `gorm:"type:decimal(11,8);not null" json:"lng"`
	Notes       string     `gorm:"size:255" json:"notes"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at"` // Terisi hanya kalau status COMPLETED
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relasi (Preload) biar pas query datanya lengkap
	Items     []RequestItem `gorm:"foreignKey:RequestID" json:"items"`
	Collector *User         `gorm:"foreignKey:CollectorID" json:"collector,omitempty"`
}

// RequestItem adalah satu jenis material dalam satu request.
// Ikut dikunci setelah create.
type RequestItem struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	RequestID    uint64 `gorm:"not null;index" json:"request_id"`
	MaterialCode string `gorm:"size:30;not null" json:"material_code"`
	WeightKG     int    `gorm:"not null" json:"weight_kg"` // Minimal 1 kg, bilangan bulat biar hitungan poin pasti
	Notes        string `gorm:"size:255" json:"notes"`
}

type CreateRequestItemInput struct {
	MaterialCode string `json:"material_code" binding:"required"`
	WeightKG     int    `json:"weight_kg" binding:"required,min=1"`
	Notes        string `json:"notes"`
}

type CreateRequestInput struct {
	// Tanpa binding "required": 0 itu koordinat sah (ekuator/meridian).
	// Jangkauan koordinat divalidasi service.
	Lat         float64                  `json:"lat"`
	Lng         float64                  `json:"lng"`
	Priority    string                   `json:"priority" binding:"omitempty,oneof=NORMAL HIGH"`
	Notes       string                   `json:"notes"`
	ScheduledAt *time.Time               `json:"scheduled_at"`
	Items       []CreateRequestItemInput `json:"items" binding:"required,min=1,dive"`
}
