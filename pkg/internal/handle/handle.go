// Package handle 提供请求处理器的实现，用于处理 HTTP 请求.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/folio/pkg/internal/types"
)

// NoRoute 未匹配路由时返回统一错误体.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
}
