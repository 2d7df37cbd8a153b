package middleware

import (
	"github.com/gin-gonic/gin"

	fctx "github.com/yeisme/folio/pkg/context"
	"github.com/yeisme/folio/pkg/internal/storage"
	"github.com/yeisme/folio/pkg/scheduler"
)

// InjectMiddleware 把存储 Manager 与调度器挂到请求 context 上，nil 的一方不注入.
// 处理函数通过 pkg/context 的 GetKVClient、GetMQClient、GetScheduler 读取.
func InjectMiddleware(manager *storage.Manager, sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if manager != nil {
			ctx = fctx.WithStorageManager(ctx, manager)
		}

		if sched != nil {
			ctx = fctx.WithScheduler(ctx, sched)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
