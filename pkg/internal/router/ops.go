package router

import (
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/folio/docs"
	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/handle"
)

// RegisterOpsRoutes 注册运维路由：调度任务只读查询，以及调试模式下的 Swagger 文档.
func RegisterOpsRoutes(r *gin.Engine, server configs.ServerConfig) {
	jobs := r.Group("/api/v1/scheduler")
	{
		jobs.GET("/jobs", handle.SchedulerJobs)
		jobs.GET("/queue/waiting", handle.SchedulerQueueWaiting)
	}

	if !server.Debug {
		return
	}

	docs.SwaggerInfo.Host = net.JoinHostPort(server.Host, strconv.Itoa(server.Port))
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("list"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))
}
