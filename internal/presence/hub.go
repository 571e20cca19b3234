package presence

import (
	"sync"
	"time"
)

// Position adalah update posisi dari device kolektor/requester
type Position struct {
	UserID    uint64    `json:"user_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Event yang diterima subscriber: posisi terbaru, atau kabar user pergi
type Event struct {
	UserID   uint64  `json:"user_id"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	Departed bool    `json:"departed,omitempty"`
}

type Subscriber struct {
	C chan Event
}

// Hub menyimpan HANYA posisi terakhir per user (bukan history) dan
// menyebarkannya ke subscriber live map. Kirim ke subscriber selalu
// non-blocking: observer yang lemot kehilangan event, bukan menahan
// update posisi user lain.
type Hub struct {
	mu     sync.RWMutex
	latest map[uint64]Position
	subs   map[*Subscriber]struct{}

	ttl  time.Duration
	stop chan struct{}
}

// NewHub membuat hub + goroutine penyapu di background: user yang
// tidak kirim posisi selama ttl dianggap putus dan ditarik dari peta
// (pola yang sama dengan cleanup di rate limiter)
func NewHub(ttl time.Duration) *Hub {
	h := &Hub{
		latest: make(map[uint64]Position),
		subs:   make(map[*Subscriber]struct{}),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}

	go h.sweepStale()

	return h
}

// Publish menerima posisi baru. Last-write-wins per timestamp:
// update yang datang telat (timestamp lebih tua dari yang tersimpan)
// dibuang diam-diam.
func (h *Hub) Publish(p Position) {
	h.mu.Lock()
	if cur, ok := h.latest[p.UserID]; ok && p.Timestamp.Before(cur.Timestamp) {
		h.mu.Unlock()
		return
	}
	h.latest[p.UserID] = p
	h.mu.Unlock()

	h.broadcast(Event{UserID: p.UserID, Lat: p.Lat, Lng: p.Lng})
}

// Depart menarik posisi user dari peta dan mengabari semua observer.
// Dipanggil saat user disconnect eksplisit; sweep TTL juga lewat sini.
func (h *Hub) Depart(userID uint64) {
	h.mu.Lock()
	_, ok := h.latest[userID]
	delete(h.latest, userID)
	h.mu.Unlock()

	if ok {
		h.broadcast(Event{UserID: userID, Departed: true})
	}
}

// Subscribe mendaftarkan observer baru. Posisi yang sudah ada langsung
// dikirim duluan biar peta tidak mulai dari kosong.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, 16)}

	h.mu.Lock()
	snapshot := make([]Position, 0, len(h.latest))
	for _, p := range h.latest {
		snapshot = append(snapshot, p)
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	for _, p := range snapshot {
		select {
		case sub.C <- Event{UserID: p.UserID, Lat: p.Lat, Lng: p.Lng}:
		default:
		}
	}

	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	h.mu.Unlock()
}

// Latest mengembalikan snapshot posisi terakhir semua user
func (h *Hub) Latest() []Position {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Position, 0, len(h.latest))
	for _, p := range h.latest {
		out = append(out, p)
	}
	return out
}

func (h *Hub) Close() {
	close(h.stop)
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.C <- ev:
		default: // subscriber penuh, skip
		}
	}
}

func (h *Hub) sweepStale() {
	ticker := time.NewTicker(h.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-h.ttl)

			h.mu.RLock()
			var stale []uint64
			for id, p := range h.latest {
				if p.Timestamp.Before(cutoff) {
					stale = append(stale, id)
				}
			}
			h.mu.RUnlock()

			for _, id := range stale {
				h.Depart(id)
			}
		}
	}
}
