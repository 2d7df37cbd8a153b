package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/log"
)

const msgRateLimited = "Too many requests, please try again later"

// visitor 单个客户端的 limiter 与最近访问时间.
type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// visitors 按 key 分配 limiter，访问时顺带回收闲置超过 idle 的条目.
type visitors struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	idle    time.Duration
	swept   time.Time
	entries map[string]*visitor
}

func newVisitors(cfg configs.RateLimitConfig) *visitors {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = configs.DefaultRateLimitIdleTTL
	}

	return &visitors{
		rps:     rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		idle:    idle,
		swept:   time.Now(),
		entries: make(map[string]*visitor),
	}
}

func (v *visitors) get(key string, now time.Time) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.swept) >= v.idle {
		for k, e := range v.entries {
			if now.Sub(e.seen) >= v.idle {
				delete(v.entries, k)
			}
		}

		v.swept = now
	}

	e, ok := v.entries[key]
	if !ok {
		e = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.entries[key] = e
	}

	e.seen = now

	return e.limiter
}

func (v *visitors) size() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.entries)
}

// RateLimitMiddleware 按配置的维度限流，超限返回 429 与 Retry-After.
// Exempt 中的路径前缀（健康检查、指标）不受限.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyOf := rateLimitKey(cfg.Key)
	set := newVisitors(cfg)
	logger := log.Component("ratelimit")

	return func(c *gin.Context) {
		if exempt(c.Request.URL.Path, cfg.Exempt) {
			c.Next()
			return
		}

		key := keyOf(c)
		now := time.Now()

		res := set.get(key, now).ReserveN(now, 1)
		if !res.OK() {
			rejectRateLimited(c, time.Second)
			return
		}

		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)

			logger.Debug().Str("key", key).Dur("retry_after", delay).Int("clients", set.size()).Msg("request rate limited")
			rejectRateLimited(c, delay)

			return
		}

		c.Next()
	}
}

// rateLimitKey 解析限流维度：global 所有请求共用一个 limiter，header:X 取请求头（缺失时退回 IP）.
func rateLimitKey(mode string) func(*gin.Context) string {
	mode = strings.TrimSpace(mode)

	switch {
	case mode == "" || strings.EqualFold(mode, "global"):
		return func(*gin.Context) string { return "global" }
	case len(mode) > len("header:") && strings.EqualFold(mode[:len("header:")], "header:"):
		header := mode[len("header:"):]

		return func(c *gin.Context) string {
			if v := c.GetHeader(header); v != "" {
				return "h:" + v
			}

			return "ip:" + clientIP(c)
		}
	default:
		return func(c *gin.Context) string { return "ip:" + clientIP(c) }
	}
}

func rejectRateLimited(c *gin.Context, wait time.Duration) {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}

	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: msgRateLimited})
}

func exempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}

	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}

	return "unknown"
}
