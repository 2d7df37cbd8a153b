package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	fctx "github.com/yeisme/folio/pkg/context"
	"github.com/yeisme/folio/pkg/internal/types"
)

const timeout = 2 * time.Second

const healthProbeKey = "folio:health:probe"

// HealthLive 存活检查.
func HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{Component: "server", Status: "ok"})
}

// HealthCollection 作品集根目录检查.
func (h *PortfolioHandlers) HealthCollection(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := h.svc.CheckCollection(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "collection", Status: "unhealthy", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "collection", Status: "ok"})
}

// HealthKV KV 缓存健康检查，写入并读取一个短期探测键.
func HealthKV(c *gin.Context) {
	kvc := fctx.GetKVClient(c.Request.Context())
	if kvc == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "kv", Status: "unhealthy", Error: "kv client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := kvc.Set(ctx, healthProbeKey, []byte("ok"), timeout); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "kv", Status: "unhealthy", Error: err.Error()})
		return
	}

	if _, err := kvc.Get(ctx, healthProbeKey); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "kv", Status: "unhealthy", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "kv", Status: "ok"})
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := fctx.GetMQClient(c.Request.Context())
	if mqc == nil { // publisher 与 subscriber 初始化在 New 中, 判空即可
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: "mq", Status: "unhealthy", Error: "mq client not initialized"})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "mq", Status: "ok"})
}
