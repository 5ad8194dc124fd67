package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/user-management/internal/http/response"
)

const (
	limiterIdleTTL   = 3 * time.Minute
	limiterSweepSize = 1024
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors — лимитеры по адресу клиента.
type visitors struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byIP  map[string]*visitor
}

func (v *visitors) get(ip string, now time.Time) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.byIP) >= limiterSweepSize {
		for k, vis := range v.byIP {
			if now.Sub(vis.lastSeen) > limiterIdleTTL {
				delete(v.byIP, k)
			}
		}
	}

	vis, ok := v.byIP[ip]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.byIP[ip] = vis
	}
	vis.lastSeen = now
	return vis.limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware ограничивает частоту запросов: rps в секунду, всплеск до burst.
// Лимит считается отдельно для каждого адреса клиента (r.RemoteAddr после middleware.RealIP).
func RateLimitMiddleware(log *slog.Logger, rps float64, burst int) func(http.Handler) http.Handler {
	limiters := &visitors{rps: rate.Limit(rps), burst: burst, byIP: make(map[string]*visitor)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiters.get(ip, time.Now()).Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path), slog.String("ip", ip))
				response.Status(w, r, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
