// Package middleware 提供 gin 中间件：请求 ID、日志、指标、追踪、限流、ETag 等.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fctx "github.com/yeisme/folio/pkg/context"
)

// HeaderRequestID 请求 ID 头.
const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware 复用上游的 X-Request-ID，缺失时生成 uuid，并写回响应头与 context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(fctx.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}
