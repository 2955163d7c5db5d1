package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/ironsheep/box-measure/internal/response"
)

var (
	ErrTooManyRequests = response.NewError(http.StatusTooManyRequests, "Muitas requisições")
)

// Limiters idle for longer than limiterIdleTTL are dropped, checked at most
// once per pruneInterval.
const (
	limiterIdleTTL = 3 * time.Minute
	pruneInterval  = time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	bucket    map[string]*client
	rate      rate.Limit
	burstSize int
	mutex     *sync.Mutex
	lastPrune time.Time
	now       func() time.Time
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		bucket:    make(map[string]*client),
		rate:      reqRate,
		burstSize: burstSize,
		mutex:     &sync.Mutex{},
		now:       time.Now,
	}
}

func (r *rateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	if now.Sub(r.lastPrune) >= pruneInterval {
		r.prune(now)
	}

	c, exist := r.bucket[ip]
	if !exist {
		c = &client{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.bucket[ip] = c
	}
	c.lastSeen = now

	return c.limiter
}

// prune drops idle limiters. The caller holds the mutex.
func (r *rateLimiter) prune(now time.Time) {
	for ip, c := range r.bucket {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(r.bucket, ip)
		}
	}
	r.lastPrune = now
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()
	limiter := m.rateLimitter.GetLimiterFrom(clientIP)

	if !limiter.Allow() {
		m.log.Warnf("too many requests for IP %s", clientIP)
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"erro": ErrTooManyRequests.Error(),
		})
	}

	return ctx.Next()
}
