package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// bufferedWriter 缓冲响应体，等处理器结束后再决定写 200 还是 304.
type bufferedWriter struct {
	gin.ResponseWriter

	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *bufferedWriter) WriteString(s string) (int, error) { return w.buf.WriteString(s) }

// ETagMiddleware 为 GET/HEAD 的 200 响应计算 xxhash 弱校验 ETag，命中 If-None-Match 时返回 304.
//
// 使用示例:
//
//	api.GET("/portfolio", middleware.ETagMiddleware(), h.Catalog)
func ETagMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}

		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig}
		c.Writer = bw

		c.Next()

		c.Writer = orig
		body := bw.buf.Bytes()

		if orig.Status() != http.StatusOK {
			_, _ = orig.Write(body)
			return
		}

		etag := fmt.Sprintf(`"%x"`, xxhash.Sum64(body))
		orig.Header().Set("ETag", etag)

		if matchETag(c.GetHeader("If-None-Match"), etag) {
			orig.Header().Del("Content-Type")
			orig.Header().Del("Content-Length")
			orig.WriteHeader(http.StatusNotModified)
			orig.WriteHeaderNow()

			return
		}

		_, _ = orig.Write(body)
	}
}

// matchETag 判断 If-None-Match 是否包含给定 etag，支持逗号分隔列表、W/ 前缀与 *.
func matchETag(header, etag string) bool {
	if header == "" {
		return false
	}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "W/")

		if part == "*" || part == etag {
			return true
		}
	}

	return false
}
