package dispatch

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"daurulang-backend/internal/models"
	"daurulang-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore meniru primitive atomik store asli di memori.
// Semua operasi di bawah satu mutex, jadi conditional update-nya
// benar-benar atomik seperti di DB.
type fakeStore struct {
	mu       sync.Mutex
	seq      uint64
	requests map[uint64]*models.PickupRequest
	rates    map[string]int64

	balances map[uint64]int64 // saldo per user
	txs      []models.WalletTransaction

	claimErr   error // injeksi error infra saat claim
	getErr     error // injeksi error infra saat baca by id
	settleFail bool  // injeksi kegagalan settlement
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[uint64]*models.PickupRequest),
		balances: make(map[uint64]int64),
		rates: map[string]int64{
			"PLASTIC": 100,
			"PAPER":   60,
			"METAL":   250,
		},
	}
}

func (f *fakeStore) Insert(_ context.Context, req *models.PickupRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	req.ID = f.seq
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (*models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	req, ok := f.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) FindNearby(_ context.Context, lat, lng, radiusM float64, limit int) ([]models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type cand struct {
		req  models.PickupRequest
		dist float64
	}
	var cands []cand
	for _, req := range f.requests {
		if req.Status != models.StatusPending || req.CollectorID != nil {
			continue
		}
		d := haversineM(lat, lng, req.Lat, req.Lng)
		if d <= radiusM {
			cands = append(cands, cand{*req, d})
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].req.CreatedAt.Before(cands[j].req.CreatedAt)
	})

	out := make([]models.PickupRequest, 0, limit)
	for _, c := range cands {
		if len(out) == limit {
			break
		}
		out = append(out, c.req)
	}
	return out, nil
}

func (f *fakeStore) ListByRequester(_ context.Context, requesterID uint64) ([]models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.PickupRequest
	for _, req := range f.requests {
		if req.RequesterID == requesterID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByCollector(_ context.Context, collectorID uint64) ([]models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.PickupRequest
	for _, req := range f.requests {
		if req.CollectorID != nil && *req.CollectorID == collectorID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeStore) ClaimAssign(_ context.Context, requestID, collectorID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claimErr != nil {
		return false, f.claimErr
	}

	req, ok := f.requests[requestID]
	if !ok || req.Status != models.StatusPending || req.CollectorID != nil {
		return false, nil
	}
	cid := collectorID
	req.CollectorID = &cid
	req.Status = models.StatusAssigned
	return true, nil
}

func (f *fakeStore) MarkInProgress(_ context.Context, requestID, collectorID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok || req.Status != models.StatusAssigned ||
		req.CollectorID == nil || *req.CollectorID != collectorID {
		return false, nil
	}
	req.Status = models.StatusInProgress
	return true, nil
}

func (f *fakeStore) CompleteAndSettle(_ context.Context, requestID, collectorID, requesterID uint64, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok || req.Status != models.StatusInProgress ||
		req.CollectorID == nil || *req.CollectorID != collectorID {
		return false, nil
	}

	// Kegagalan settlement = seluruh unit batal, status tidak bergeser
	if f.settleFail {
		return false, errors.New("database down")
	}

	now := time.Now()
	req.Status = models.StatusCompleted
	req.CompletedAt = &now

	f.balances[requesterID] += amount
	reqID := requestID
	f.txs = append(f.txs, models.WalletTransaction{
		WalletID:  requesterID,
		RequestID: &reqID,
		Amount:    amount,
		Type:      models.TxAddition,
	})
	return true, nil
}

func (f *fakeStore) CancelPending(_ context.Context, requestID, requesterID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok || req.Status != models.StatusPending || req.RequesterID != requesterID {
		return false, nil
	}
	req.Status = models.StatusCancelled
	return true, nil
}

func (f *fakeStore) CancelAssigned(_ context.Context, requestID, actorID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok || req.Status != models.StatusAssigned {
		return false, nil
	}
	if req.RequesterID != actorID && (req.CollectorID == nil || *req.CollectorID != actorID) {
		return false, nil
	}
	req.Status = models.StatusCancelled
	req.CollectorID = nil
	return true, nil
}

func (f *fakeStore) RatesByCode(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int64, len(f.rates))
	for k, v := range f.rates {
		out[k] = v
	}
	return out, nil
}

func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusM = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

// assertLifecycleInvariant: collector terisi <=> status ASSIGNED/IN_PROGRESS/COMPLETED,
// dan completed_at terisi <=> status COMPLETED
func assertLifecycleInvariant(t *testing.T, req *models.PickupRequest) {
	t.Helper()

	hasCollector := req.CollectorID != nil
	activeStatus := req.Status == models.StatusAssigned ||
		req.Status == models.StatusInProgress ||
		req.Status == models.StatusCompleted
	assert.Equal(t, activeStatus, hasCollector,
		"collector harus terisi tepat saat status %s", req.Status)

	assert.Equal(t, req.Status == models.StatusCompleted, req.CompletedAt != nil)
}

func validInput() models.CreateRequestInput {
	return models.CreateRequestInput{
		Lat: 35.70,
		Lng: 51.40,
		Items: []models.CreateRequestItemInput{
			{MaterialCode: "PLASTIC", WeightKG: 5},
		},
	}
}

const (
	requesterID  = uint64(100)
	collectorID  = uint64(200)
	collectorID2 = uint64(201)
)

func TestCreateRequest(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, models.PriorityNormal, req.Priority)
	assert.Equal(t, requesterID, req.RequesterID)
	assert.Nil(t, req.CollectorID)
	assert.NotEmpty(t, req.RequestNo)
	assert.Len(t, req.Items, 1)
	assertLifecycleInvariant(t, req)
}

func TestCreateRequestValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.CreateRequestInput)
	}{
		{"items kosong", func(in *models.CreateRequestInput) { in.Items = nil }},
		{"berat di bawah 1 kg", func(in *models.CreateRequestInput) { in.Items[0].WeightKG = 0 }},
		{"material tidak dikenal", func(in *models.CreateRequestInput) { in.Items[0].MaterialCode = "URANIUM" }},
		{"lat di luar jangkauan", func(in *models.CreateRequestInput) { in.Lat = 123.0 }},
		{"lng di luar jangkauan", func(in *models.CreateRequestInput) { in.Lng = -200.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.CreateRequest(ctx, requesterID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

// (0,0) itu koordinat sah, bukan "belum diisi"
func TestCreateRequestZeroCoordinate(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	in := validInput()
	in.Lat, in.Lng = 0, 0
	req, err := svc.CreateRequest(ctx, requesterID, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
}

func TestFindNearby(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	// Tiga request: dekat, agak jauh, jauh banget
	near := validInput() // (35.70, 51.40)
	_, err := svc.CreateRequest(ctx, requesterID, near)
	require.NoError(t, err)

	mid := validInput()
	mid.Lat, mid.Lng = 35.705, 51.405
	_, err = svc.CreateRequest(ctx, requesterID, mid)
	require.NoError(t, err)

	far := validInput()
	far.Lat, far.Lng = 36.50, 52.50
	_, err = svc.CreateRequest(ctx, requesterID, far)
	require.NoError(t, err)

	// Kolektor di (35.701, 51.401): skenario radius 2 km
	got, err := svc.FindNearby(ctx, 35.701, 51.401, 2000, 10)
	require.NoError(t, err)
	require.Len(t, got, 2, "yang jauh tidak boleh ikut")
	assert.Equal(t, uint64(1), got[0].ID, "terdekat duluan")
	assert.Equal(t, uint64(2), got[1].ID)

	// Limit memotong hasil
	got, err = svc.FindNearby(ctx, 35.701, 51.401, 2000, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Request yang sudah diambil tidak boleh muncul lagi
	_, err = svc.Claim(ctx, 1, collectorID)
	require.NoError(t, err)
	got, err = svc.FindNearby(ctx, 35.701, 51.401, 2000, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)
	for _, r := range got {
		assert.Equal(t, models.StatusPending, r.Status)
		assert.Nil(t, r.CollectorID)
	}

	// Kosong bukan error
	got, err = svc.FindNearby(ctx, -6.2, 106.8, 2000, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindNearbyValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	_, err := svc.FindNearby(ctx, 35.70, 51.40, 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.FindNearby(ctx, 35.70, 51.40, -5, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.FindNearby(ctx, 35.70, 51.40, 2000, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.FindNearby(ctx, 95.0, 51.40, 2000, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClaim(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)

	req, err := svc.Claim(ctx, created.ID, collectorID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, req.Status)
	require.NotNil(t, req.CollectorID)
	assert.Equal(t, collectorID, *req.CollectorID)
	assertLifecycleInvariant(t, req)

	// Kolektor lain nyusul: kalah
	_, err = svc.Claim(ctx, created.ID, collectorID2)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// Claim bukan "ensure assigned": kolektor yang sama pun ditolak
	_, err = svc.Claim(ctx, created.ID, collectorID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// Request tidak ada
	_, err = svc.Claim(ctx, 9999, collectorID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimIndeterminate(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)

	fs.claimErr = errors.New("connection reset")
	_, err = svc.Claim(ctx, created.ID, collectorID)
	assert.ErrorIs(t, err, ErrClaimIndeterminate)
}

// Infra gagal saat baca bukan berarti request tidak ada: error DB
// tidak boleh dilaporkan NOT_FOUND untuk request yang masih ada
func TestReadFailureIsNotNotFound(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)
	_, err = svc.Claim(ctx, created.ID, collectorID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, created.ID, collectorID)
	require.NoError(t, err)

	fs.getErr = errors.New("driver: bad connection")

	_, _, err = svc.Complete(ctx, created.ID, collectorID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.GetRequest(ctx, created.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.Cancel(ctx, created.ID, requesterID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	// Infra pulih: request masih ada, status tidak tersentuh
	fs.getErr = nil
	req, err := svc.GetRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, req.Status)
}

// Properti inti claim: N kolektor rebutan satu request,
// tepat SATU menang, sisanya ALREADY_CLAIMED
func TestConcurrentClaim(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Claim(ctx, created.ID, uint64(1000+i))
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyClaimed):
			losses++
		default:
			t.Fatalf("error tak terduga: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "harus tepat satu pemenang")
	assert.Equal(t, n-1, losses)

	req, err := svc.GetRequest(ctx, created.ID)
	require.NoError(t, err)
	assertLifecycleInvariant(t, req)
}

func TestStart(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)

	// Belum di-claim: tidak bisa mulai
	_, err = svc.Start(ctx, created.ID, collectorID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Claim(ctx, created.ID, collectorID)
	require.NoError(t, err)

	// Aktor yang bukan kolektornya ditolak
	_, err = svc.Start(ctx, created.ID, collectorID2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	req, err := svc.Start(ctx, created.ID, collectorID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, req.Status)
	assertLifecycleInvariant(t, req)

	_, err = svc.Start(ctx, 9999, collectorID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComplete(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	in := validInput()
	in.Items = []models.CreateRequestItemInput{
		{MaterialCode: "PLASTIC", WeightKG: 5}, // 5 * 100
		{MaterialCode: "METAL", WeightKG: 2},   // 2 * 250
	}
	created, err := svc.CreateRequest(ctx, requesterID, in)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, created.ID, collectorID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, created.ID, collectorID)
	require.NoError(t, err)

	req, amount, err := svc.Complete(ctx, created.ID, collectorID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amount)
	assert.Equal(t, models.StatusCompleted, req.Status)
	require.NotNil(t, req.CompletedAt)
	assertLifecycleInvariant(t, req)

	// Wallet requester terkredit, tepat satu transaksi ADDITION
	assert.Equal(t, int64(1000), fs.balances[requesterID])
	require.Len(t, fs.txs, 1)
	assert.Equal(t, models.TxAddition, fs.txs[0].Type)
	require.NotNil(t, fs.txs[0].RequestID)
	assert.Equal(t, created.ID, *fs.txs[0].RequestID)

	// Complete dua kali = transisi ilegal, tidak ada kredit dobel
	_, _, err = svc.Complete(ctx, created.ID, collectorID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, fs.txs, 1)
}

func TestCompleteWrongActor(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)
	_, err = svc.Claim(ctx, created.ID, collectorID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, created.ID, collectorID)
	require.NoError(t, err)

	_, _, err = svc.Complete(ctx, created.ID, collectorID2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	req, _ := svc.GetRequest(ctx, created.ID)
	assert.Equal(t, models.StatusInProgress, req.Status)
}

// Settlement gagal: status TIDAK bergeser, ledger TIDAK nambah.
// Tidak ada hasil ketiga selain sukses-total atau batal-total.
func TestCompleteSettlementFailure(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, requesterID, validInput())
	require.NoError(t, err)
	_, err = svc.Claim(ctx, created.ID, collectorID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, created.ID, collectorID)
	require.NoError(t, err)

	fs.settleFail = true
	_, _, err = svc.Complete(ctx, created.ID, collectorID)
	assert.ErrorIs(t, err, ErrSettlementFailed)

	req, err := svc.GetRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, req.Status)
	assert.Nil(t, req.CompletedAt)
	assert.Empty(t, fs.txs)
	assert.Zero(t, fs.balances[requesterID])

	// Setelah infra pulih, retry utuh aman
	fs.settleFail = false
	_, amount, err := svc.Complete(ctx, created.ID, collectorID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), amount)
	assert.Len(t, fs.txs, 1)
}

func TestCancel(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	t.Run("pending oleh requester", func(t *testing.T) {
		created, _ := svc.CreateRequest(ctx, requesterID, validInput())
		req, err := svc.Cancel(ctx, created.ID, requesterID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, req.Status)
		assertLifecycleInvariant(t, req)
	})

	t.Run("pending oleh orang lain", func(t *testing.T) {
		created, _ := svc.CreateRequest(ctx, requesterID, validInput())
		_, err := svc.Cancel(ctx, created.ID, collectorID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("assigned oleh kolektor, kolom kolektor dikosongkan", func(t *testing.T) {
		created, _ := svc.CreateRequest(ctx, requesterID, validInput())
		_, err := svc.Claim(ctx, created.ID, collectorID)
		require.NoError(t, err)

		req, err := svc.Cancel(ctx, created.ID, collectorID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, req.Status)
		assert.Nil(t, req.CollectorID)
		assertLifecycleInvariant(t, req)

		// Tetap CANCELLED: tidak bisa di-claim ulang
		_, err = svc.Claim(ctx, created.ID, collectorID2)
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	t.Run("in_progress tidak bisa dibatalkan", func(t *testing.T) {
		created, _ := svc.CreateRequest(ctx, requesterID, validInput())
		_, err := svc.Claim(ctx, created.ID, collectorID)
		require.NoError(t, err)
		_, err = svc.Start(ctx, created.ID, collectorID)
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, created.ID, requesterID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("request tidak ada", func(t *testing.T) {
		_, err := svc.Cancel(ctx, 9999, requesterID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
