package store

import (
	"context"
	"errors"
	"time"

	"daurulang-backend/internal/models"

	"gorm.io/gorm"
)

// GormRequestStore adalah akses DB untuk pickup request + tarif material.
// Field yang dijaga state machine (status, collector_id) TIDAK punya
// setter biasa di sini: semua mutasi lewat conditional update satu kali
// jalan, menang/kalahnya dilihat dari RowsAffected. Jadi race rebutan
// claim diselesaikan di level DB, bukan pakai lock di proses.
type GormRequestStore struct {
	db *gorm.DB
}

func NewRequestStore(db *gorm.DB) *GormRequestStore {
	return &GormRequestStore{db: db}
}

var errNoMatch = errors.New("no rows matched")

// Insert menyimpan request baru beserta items-nya (satu create, items
// ikut lewat asosiasi gorm)
func (s *GormRequestStore) Insert(ctx context.Context, req *models.PickupRequest) error {
	tctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.db.WithContext(tctx).Create(req).Error
}

func (s *GormRequestStore) GetByID(ctx context.Context, id uint64) (*models.PickupRequest, error) {
	var req models.PickupRequest
	err := retryRead(ctx, func(tctx context.Context) error {
		return s.db.WithContext(tctx).Preload("Items").First(&req, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindNearby mencari request PENDING tanpa kolektor di sekitar titik.
// Jarak dihitung Haversine langsung di SQL (6371000 = jari-jari bumi
// dalam meter), urut dari yang terdekat; kalau jaraknya sama persis,
// yang dibuat duluan menang biar hasilnya deterministik.
func (s *GormRequestStore) FindNearby(ctx context.Context, lat, lng, radiusM float64, limit int) ([]models.PickupRequest, error) {
	var reqs []models.PickupRequest
	err := retryRead(ctx, func(tctx context.Context) error {
		reqs = nil
		return s.db.WithContext(tctx).
			Model(&models.PickupRequest{}).
			Select("pickup_requests.*, (6371000 * acos(cos(radians(?)) * cos(radians(lat)) * cos(radians(lng) - radians(?)) + sin(radians(?)) * sin(radians(lat)))) AS distance", lat, lng, lat).
			Where("status = ? AND collector_id IS NULL", models.StatusPending).
			Having("distance <= ?", radiusM).
			Order("distance ASC, created_at ASC").
			Limit(limit).
			Preload("Items").
			Find(&reqs).Error
	})
	return reqs, err
}

func (s *GormRequestStore) ListByRequester(ctx context.Context, requesterID uint64) ([]models.PickupRequest, error) {
	var reqs []models.PickupRequest
	err := retryRead(ctx, func(tctx context.Context) error {
		reqs = nil
		return s.db.WithContext(tctx).
			Preload("Items").
			Preload("Collector").
			Where("requester_id = ?", requesterID).
			Order("created_at desc").
			Find(&reqs).Error
	})
	return reqs, err
}

func (s *GormRequestStore) ListByCollector(ctx context.Context, collectorID uint64) ([]models.PickupRequest, error) {
	var reqs []models.PickupRequest
	err := retryRead(ctx, func(tctx context.Context) error {
		reqs = nil
		return s.db.WithContext(tctx).
			Preload("Items").
			Where("collector_id = ?", collectorID).
			Order("created_at desc").
			Find(&reqs).Error
	})
	return reqs, err
}

// ClaimAssign: "siapa cepat dia dapat", tapi aman.
// UPDATE ... WHERE id = ? AND status = PENDING AND collector_id IS NULL
// dalam satu statement. Kalau dua kolektor rebutan, DB yang memutuskan:
// tepat satu yang dapat RowsAffected = 1, sisanya 0.
func (s *GormRequestStore) ClaimAssign(ctx context.Context, requestID, collectorID uint64) (bool, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(tctx).
		Model(&models.PickupRequest{}).
		Where("id = ? AND status = ? AND collector_id IS NULL", requestID, models.StatusPending).
		Updates(map[string]interface{}{
			"collector_id": collectorID,
			"status":       models.StatusAssigned,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkInProgress: hanya kolektor pemilik request ASSIGNED yang bisa mulai kerja
func (s *GormRequestStore) MarkInProgress(ctx context.Context, requestID, collectorID uint64) (bool, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(tctx).
		Model(&models.PickupRequest{}).
		Where("id = ? AND status = ? AND collector_id = ?", requestID, models.StatusAssigned, collectorID).
		Update("status", models.StatusInProgress)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompleteAndSettle menyelesaikan request DAN mengkredit wallet requester
// dalam SATU transaksi DB. Kalau salah satu gagal, dua-duanya batal:
// tidak akan ada request COMPLETED tanpa transaksi ADDITION, dan sebaliknya.
func (s *GormRequestStore) CompleteAndSettle(ctx context.Context, requestID, collectorID, requesterID uint64, amount int64) (bool, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	err := s.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		// 1. Flip status, masih conditional (status + kolektor harus cocok)
		res := tx.Model(&models.PickupRequest{}).
			Where("id = ? AND status = ? AND collector_id = ?", requestID, models.StatusInProgress, collectorID).
			Updates(map[string]interface{}{
				"status":       models.StatusCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoMatch
		}

		// 2. Pastikan requester punya wallet
		var wallet models.Wallet
		if err := tx.Where(models.Wallet{UserID: requesterID}).FirstOrCreate(&wallet).Error; err != nil {
			return err
		}

		// 3. Tambah saldo di sisi server, bukan baca-hitung-tulis dari Go
		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", wallet.ID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}

		// 4. Catat di ledger. Index unique di request_id menjaga
		// maksimal satu kredit per request walau ada bug di atasnya.
		reqID := requestID
		trx := models.WalletTransaction{
			WalletID:  wallet.ID,
			RequestID: &reqID,
			Amount:    amount,
			Type:      models.TxAddition,
		}
		return tx.Create(&trx).Error
	})

	if errors.Is(err, errNoMatch) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CancelPending: requester membatalkan request yang belum diambil siapa-siapa
func (s *GormRequestStore) CancelPending(ctx context.Context, requestID, requesterID uint64) (bool, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(tctx).
		Model(&models.PickupRequest{}).
		Where("id = ? AND status = ? AND requester_id = ?", requestID, models.StatusPending, requesterID).
		Update("status", models.StatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CancelAssigned: dari ASSIGNED boleh dibatalkan requester maupun kolektornya.
// Kolom collector_id dikosongkan lagi, tapi statusnya tetap CANCELLED
// (tidak otomatis balik ke PENDING).
func (s *GormRequestStore) CancelAssigned(ctx context.Context, requestID, actorID uint64) (bool, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(tctx).
		Model(&models.PickupRequest{}).
		Where("id = ? AND status = ? AND (requester_id = ? OR collector_id = ?)",
			requestID, models.StatusAssigned, actorID, actorID).
		Updates(map[string]interface{}{
			"status":       models.StatusCancelled,
			"collector_id": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RatesByCode mengambil tarif poin semua material, dipakai untuk
// validasi item saat create dan hitung kredit saat complete
func (s *GormRequestStore) RatesByCode(ctx context.Context) (map[string]int64, error) {
	var materials []models.Material
	err := retryRead(ctx, func(tctx context.Context) error {
		materials = nil
		return s.db.WithContext(tctx).Find(&materials).Error
	})
	if err != nil {
		return nil, err
	}

	rates := make(map[string]int64, len(materials))
	for _, m := range materials {
		rates[m.Code] = m.RatePerKG
	}
	return rates, nil
}
