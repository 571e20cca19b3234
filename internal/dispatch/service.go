package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daurulang-backend/internal/models"
	"daurulang-backend/internal/store"
)

// Error bisnis yang dipetakan handler ke kode stabil untuk frontend.
// Tidak ada yang ditelan diam-diam di layer ini: semua balik ke caller.
var (
	ErrValidation         = errors.New("input tidak valid")
	ErrNotFound           = errors.New("request tidak ditemukan")
	ErrForbidden          = errors.New("bukan hak aktor ini")
	ErrInvalidTransition  = errors.New("transisi status tidak diizinkan")
	ErrAlreadyClaimed     = errors.New("request sudah diambil kolektor lain")
	ErrClaimIndeterminate = errors.New("claim tidak pasti, cari ulang dulu sebelum coba lagi")
	ErrSettlementFailed   = errors.New("settlement gagal, request tidak jadi selesai")
)

// Store adalah primitive atomik yang dibutuhkan dispatch.
// Implementasi asli pakai gorm (internal/store), test pakai fake.
type Store interface {
	Insert(ctx context.Context, req *models.PickupRequest) error
	GetByID(ctx context.Context, id uint64) (*models.PickupRequest, error)
	FindNearby(ctx context.Context, lat, lng, radiusM float64, limit int) ([]models.PickupRequest, error)
	ListByRequester(ctx context.Context, requesterID uint64) ([]models.PickupRequest, error)
	ListByCollector(ctx context.Context, collectorID uint64) ([]models.PickupRequest, error)
	ClaimAssign(ctx context.Context, requestID, collectorID uint64) (bool, error)
	MarkInProgress(ctx context.Context, requestID, collectorID uint64) (bool, error)
	CompleteAndSettle(ctx context.Context, requestID, collectorID, requesterID uint64, amount int64) (bool, error)
	CancelPending(ctx context.Context, requestID, requesterID uint64) (bool, error)
	CancelAssigned(ctx context.Context, requestID, actorID uint64) (bool, error)
	RatesByCode(ctx context.Context) (map[string]int64, error)
}

type Service struct {
	store Store
}

// notFoundOr memetakan record hilang ke ErrNotFound. Error infra lain
// diteruskan apa adanya: DB putus bukan berarti request tidak ada,
// jangan sampai dilaporkan 404.
func notFoundOr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateRequest membuat request baru dengan status PENDING.
// Items dan lokasi divalidasi di sini lalu dikunci selamanya.
func (s *Service) CreateRequest(ctx context.Context, requesterID uint64, in models.CreateRequestInput) (*models.PickupRequest, error) {
	if in.Lat < -90 || in.Lat > 90 || in.Lng < -180 || in.Lng > 180 {
		return nil, fmt.Errorf("%w: koordinat di luar jangkauan", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items tidak boleh kosong", ErrValidation)
	}

	rates, err := s.store.RatesByCode(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.RequestItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.WeightKG < 1 {
			return nil, fmt.Errorf("%w: berat minimal 1 kg", ErrValidation)
		}
		if _, ok := rates[item.MaterialCode]; !ok {
			return nil, fmt.Errorf("%w: material %s tidak dikenal", ErrValidation, item.MaterialCode)
		}
		items = append(items, models.RequestItem{
			MaterialCode: item.MaterialCode,
			WeightKG:     item.WeightKG,
			Notes:        item.Notes,
		})
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	req := &models.PickupRequest{
		RequestNo:   fmt.Sprintf("REQ-%d", time.Now().UnixNano()),
		RequesterID: requesterID,
		Status:      models.StatusPending,
		Priority:    priority,
		Lat:         in.Lat,
		Lng:         in.Lng,
		Notes:       in.Notes,
		ScheduledAt: in.ScheduledAt,
		Items:       items,
	}

	if err := s.store.Insert(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// FindNearby mencari request terbuka di sekitar posisi kolektor.
// Setiap panggilan query ulang ke store: hasilnya snapshot, bukan
// reservasi. Kalau pas di-claim ternyata sudah keduluan, itu jalur
// normalnya ErrAlreadyClaimed.
func (s *Service) FindNearby(ctx context.Context, lat, lng, radiusM float64, limit int) ([]models.PickupRequest, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: koordinat di luar jangkauan", ErrValidation)
	}
	if radiusM <= 0 {
		return nil, fmt.Errorf("%w: radius harus positif", ErrValidation)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit harus positif", ErrValidation)
	}
	return s.store.FindNearby(ctx, lat, lng, radiusM, limit)
}

// Claim merebut satu request untuk satu kolektor. One-shot: claim ulang
// oleh kolektor yang sama pun tetap ErrAlreadyClaimed, biar jejak
// "siapa menang duluan" tidak ambigu.
func (s *Service) Claim(ctx context.Context, requestID, collectorID uint64) (*models.PickupRequest, error) {
	matched, err := s.store.ClaimAssign(ctx, requestID, collectorID)
	if err != nil {
		// Gagal infra di tengah conditional write: efeknya tidak
		// diketahui. Jangan retry buta, suruh caller cari ulang.
		return nil, fmt.Errorf("%w: %v", ErrClaimIndeterminate, err)
	}
	if !matched {
		if _, err := s.store.GetByID(ctx, requestID); err != nil {
			return nil, notFoundOr(err)
		}
		return nil, ErrAlreadyClaimed
	}

	return s.store.GetByID(ctx, requestID)
}

// Start menandai kolektor sudah berangkat (ASSIGNED -> IN_PROGRESS)
func (s *Service) Start(ctx context.Context, requestID, collectorID uint64) (*models.PickupRequest, error) {
	matched, err := s.store.MarkInProgress(ctx, requestID, collectorID)
	if err != nil {
		return nil, err
	}
	if !matched {
		if _, err := s.store.GetByID(ctx, requestID); err != nil {
			return nil, notFoundOr(err)
		}
		// Status bukan ASSIGNED, atau aktornya bukan kolektor pemegang
		return nil, ErrInvalidTransition
	}
	return s.store.GetByID(ctx, requestID)
}

// Complete menutup request dan mengkredit poin ke wallet requester
// dalam satu unit atomik. Kalau settlement gagal, status tidak berubah
// dan caller boleh ulang utuh tanpa takut dobel.
func (s *Service) Complete(ctx context.Context, requestID, collectorID uint64) (*models.PickupRequest, int64, error) {
	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, 0, notFoundOr(err)
	}

	// Cek murni dulu biar errornya jelas; keputusan final tetap
	// di conditional write bawah (status bisa berubah di sela-sela)
	if !TransitionAllowed(req.Status, models.StatusCompleted) ||
		req.CollectorID == nil || *req.CollectorID != collectorID {
		return nil, 0, ErrInvalidTransition
	}

	amount, err := s.settlementAmount(ctx, req.Items)
	if err != nil {
		return nil, 0, err
	}

	matched, err := s.store.CompleteAndSettle(ctx, requestID, collectorID, req.RequesterID, amount)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	if !matched {
		return nil, 0, ErrInvalidTransition
	}

	// Settlement sudah final di titik ini; error baca ulang tinggal
	// diteruskan apa adanya, bukan SettlementFailed.
	done, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, amount, err
	}
	return done, amount, nil
}

// settlementAmount = Σ berat × tarif material. Semua integer poin,
// tidak ada float biar tidak ada selisih pembulatan.
func (s *Service) settlementAmount(ctx context.Context, items []models.RequestItem) (int64, error) {
	rates, err := s.store.RatesByCode(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, item := range items {
		rate, ok := rates[item.MaterialCode]
		if !ok {
			// Tarif dihapus admin setelah request dibuat. Jangan
			// diam-diam kredit 0: batalkan complete-nya.
			return 0, fmt.Errorf("%w: tarif material %s tidak ada", ErrSettlementFailed, item.MaterialCode)
		}
		total += int64(item.WeightKG) * rate
	}
	return total, nil
}

// Cancel membatalkan request sesuai aturan CancelAllowed.
// Dari ASSIGNED kolom kolektor dikosongkan, status tetap CANCELLED.
func (s *Service) Cancel(ctx context.Context, requestID, actorID uint64) (*models.PickupRequest, error) {
	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	isRequester := req.RequesterID == actorID
	isCollector := req.CollectorID != nil && *req.CollectorID == actorID

	if !isRequester && !isCollector {
		return nil, ErrForbidden
	}
	if !CancelAllowed(req.Status, isRequester, isCollector) {
		return nil, ErrInvalidTransition
	}

	var matched bool
	if req.Status == models.StatusPending {
		matched, err = s.store.CancelPending(ctx, requestID, actorID)
	} else {
		matched, err = s.store.CancelAssigned(ctx, requestID, actorID)
	}
	if err != nil {
		return nil, err
	}
	if !matched {
		// Keduluan transisi lain di antara baca dan tulis
		return nil, ErrInvalidTransition
	}

	return s.store.GetByID(ctx, requestID)
}

func (s *Service) GetRequest(ctx context.Context, requestID uint64) (*models.PickupRequest, error) {
	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return req, nil
}

func (s *Service) ListByRequester(ctx context.Context, requesterID uint64) ([]models.PickupRequest, error) {
	return s.store.ListByRequester(ctx, requesterID)
}

func (s *Service) ListByCollector(ctx context.Context, collectorID uint64) ([]models.PickupRequest, error) {
	return s.store.ListByCollector(ctx, collectorID)
}
