package api_test

import (
	"testing"

	"github.com/yeisme/folio/pkg/api"
)

// TestPaths 校验客户端拼接的路径与服务端路由一致.
func TestPaths(t *testing.T) {
	cases := map[string]string{
		api.DetailPath(3):         "/api/v1/portfolio/3",
		api.LegacyDetailURL(12):   "/get-item-details.php?id=12",
		api.ThumbnailPath(2, 0):   "/api/v1/portfolio/2/thumbnail",
		api.ThumbnailPath(2, 320): "/api/v1/portfolio/2/thumbnail?w=320",
	}

	for got, want := range cases {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
