package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/folio/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup, h *handle.PortfolioHandlers) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("/live", handle.HealthLive)
		healthRoutes.GET("/collection", h.HealthCollection)
		healthRoutes.GET("/kv", handle.HealthKV)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}
