package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/folio/pkg/configs"
)

// CORSMiddleware CORS中间件，目录接口是只读的，仅放行 GET/HEAD/OPTIONS.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Content-Type", "If-None-Match", HeaderRequestID}
	config.ExposeHeaders = []string{"ETag", HeaderRequestID}

	if cfg.Debug {
		config.AllowOrigins = nil
		config.AllowAllOrigins = true
	}

	return cors.New(config)
}
