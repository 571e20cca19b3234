package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiter menyimpan satu token bucket per alamat IP.
// Kolektor yang lagi jalan kirim posisi berkali-kali per menit,
// jadi limit per-route bisa berbeda (lihat RateLimitMiddleware).
type ipLimiter struct {
	ips map[string]*visitor
	mu  sync.Mutex
	r   rate.Limit // Request per detik
	b   int        // Burst: toleransi lonjakan sesaat
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(r rate.Limit, b int) *ipLimiter {
	l := &ipLimiter{
		ips: make(map[string]*visitor),
		r:   r,
		b:   b,
	}

	// Bersih-bersih IP yang sudah lama diam biar map tidak membengkak
	go l.cleanupVisitors()

	return l
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.ips[ip]
	if !exists {
		limiter := rate.NewLimiter(l.r, l.b)
		l.ips[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors menghapus IP yang sudah 3 menit tidak aktif
func (l *ipLimiter) cleanupVisitors() {
	for {
		time.Sleep(1 * time.Minute)
		l.mu.Lock()
		for ip, v := range l.ips {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(l.ips, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimitMiddleware membatasi request per IP.
// Default (5 rps, burst 10) cukup longgar untuk requester biasa;
// route presence pasang limit sendiri yang lebih longgar karena
// update lokasi memang sering.
func RateLimitMiddleware(r rate.Limit, b int) gin.HandlerFunc {
	limiter := newIPLimiter(r, b)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if lim := limiter.get(ip); !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Terlalu banyak request! Santai dulu kawan.",
			})
			return
		}
		c.Next()
	}
}
