package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit is a per-client-IP token bucket used on the auth endpoints to
// slow down code-guessing and signup spam. Stale limiters are evicted
// lazily so the map does not grow without bound.
func RateLimit(perMinute int) gin.HandlerFunc {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := perMinute

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(limit, burst)}
			clients[ip] = cl
		}
		cl.lastSeen = time.Now()

		if len(clients) > 10000 {
			for key, old := range clients {
				if time.Since(old.lastSeen) > 10*time.Minute {
					delete(clients, key)
				}
			}
		}
		mu.Unlock()

		if !cl.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
