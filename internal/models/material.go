package models

// Material adalah tarif poin per jenis sampah.
// Saldo dihitung dalam poin (integer), bukan rupiah.
type Material struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Code      string `gorm:"uniqueIndex;size:30;not null" json:"code"` // contoh: PLASTIC, PAPER, METAL, GLASS
	Name      string `gorm:"size:100;not null" json:"name"`
	RatePerKG int64  `gorm:"not null" json:"rate_per_kg"` // Poin per kilogram
}

// Struct inputan Admin saat update tarif
type UpdateMaterialInput struct {
	Name      string `json:"name"`
	RatePerKG int64  `json:"rate_per_kg" binding:"required,min=1"`
}
