package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit 按客户端（已认证取参与者 id，否则取来源 IP）限流。
func RateLimit(qps float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(id string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[id]
		if !ok {
			l = rate.NewLimiter(rate.Limit(qps), burst)
			limiters[id] = l
		}
		return l
	}

	return func(c *gin.Context) {
		id := c.GetString(ContextParticipant)
		if id == "" {
			id = c.ClientIP()
		}
		if !limiterFor(id).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": http.StatusTooManyRequests, "error": "RATE_LIMITED", "message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
