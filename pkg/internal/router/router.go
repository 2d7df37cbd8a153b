// Package router 管理路由配置，负责把处理器绑定到 gin 引擎.
package router

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/handle"
	"github.com/yeisme/folio/pkg/middleware"
)

// Register 绑定全部路由:
//
//	GET /get-portfolio.php              -> Catalog（兼容路径）
//	GET /get-item-details.php?id=       -> DetailByQuery（兼容路径）
//	GET /api/v1/portfolio               -> Catalog
//	GET /api/v1/portfolio/:id           -> Detail
//	GET /api/v1/portfolio/:id/thumbnail -> Thumbnail
//	GET /<url_prefix>/*filepath         -> 媒体静态文件
//	GET /health/*, /api/v1/scheduler/*, /swagger/*any（调试模式）
func Register(r *gin.Engine, h *handle.PortfolioHandlers, cfg configs.PortfolioConfig, server configs.ServerConfig) {
	RegisterPortfolioRoutes(r, h)
	RegisterMediaRoute(r, cfg)
	RegisterHealthCheckRoute(&r.RouterGroup, h)
	RegisterOpsRoutes(r, server)

	r.NoRoute(handle.NoRoute)
}

// RegisterPortfolioRoutes 注册目录与详情路由，目录响应带 ETag.
func RegisterPortfolioRoutes(r *gin.Engine, h *handle.PortfolioHandlers) {
	etag := middleware.ETagMiddleware()

	r.GET(api.LegacyCatalogPath, etag, h.Catalog)
	r.GET(api.LegacyDetailPath, etag, h.DetailByQuery)

	g := r.Group(api.PortfolioPath)
	{
		g.GET("", etag, h.Catalog)
		g.GET("/:id", etag, h.Detail)
		g.GET("/:id/thumbnail", h.Thumbnail)
	}
}

// RegisterMediaRoute 以 url_prefix 为路径提供根目录下的媒体文件，前缀为空时不挂载.
func RegisterMediaRoute(r *gin.Engine, cfg configs.PortfolioConfig) {
	prefix := strings.Trim(cfg.URLPrefix, "/")
	if prefix == "" {
		return
	}

	r.Static("/"+prefix, cfg.Root)
}
