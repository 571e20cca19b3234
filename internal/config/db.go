package config

import (
	"fmt"
	"log"
	"os"

	"daurulang-backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectDB membuka koneksi MySQL dari env lalu migrate tabel.
// DB-nya di-return, bukan disimpan global, biar store/service bisa
// dites pakai fake tanpa nyentuh package ini.
func ConnectDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASS"),
		getEnv("DB_HOST", "127.0.0.1"),
		getEnv("DB_PORT", "3306"),
		getEnv("DB_NAME", "daurulang"),
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gagal konek database: %w", err)
	}

	// Auto Migrate semua tabel
	err = db.AutoMigrate(
		&models.User{},
		&models.Material{},
		&models.PickupRequest{},
		&models.RequestItem{},
		&models.Wallet{},
		&models.WalletTransaction{},
	)
	if err != nil {
		return nil, fmt.Errorf("gagal migrate: %w", err)
	}

	// Seed tarif default kalau tabel material masih kosong
	var count int64
	db.Model(&models.Material{}).Count(&count)
	if count == 0 {
		db.Create(&[]models.Material{
			{Code: "PLASTIC", Name: "Plastik", RatePerKG: 100},
			{Code: "PAPER", Name: "Kertas", RatePerKG: 60},
			{Code: "METAL", Name: "Logam", RatePerKG: 250},
			{Code: "GLASS", Name: "Kaca", RatePerKG: 40},
		})
	}

	log.Println("Database connected & migrated!")
	return db, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
