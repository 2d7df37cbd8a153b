// Package api 定义作品集 HTTP 接口的对外协议：路由路径、错误文本与响应结构.
// 服务端路由与 pkg/client 共用这些定义.
package api

import (
	"net/url"
	"strconv"

	"github.com/yeisme/folio/pkg/internal/types"
)

// 路由路径.
const (
	LegacyCatalogPath = "/get-portfolio.php"
	LegacyDetailPath  = "/get-item-details.php"
	PortfolioPath     = "/api/v1/portfolio"

	// IDParam 兼容路径上的 id 查询参数.
	IDParam = "id"
	// WidthParam 缩略图宽度查询参数.
	WidthParam = "w"
)

// 对外错误信息，客户端依赖这些文本.
const (
	MsgCollectionMissing = "Portfolio directory not found"
	MsgItemNotFound      = "Portfolio item not found"
	MsgMediaNotServed    = "Portfolio media is not served by this server"
)

// 响应结构.
type (
	PortfolioItem   = types.PortfolioItem
	PortfolioDetail = types.PortfolioDetail
	ErrorResponse   = types.ErrorResponse
	HealthResponse  = types.HealthResponse
)

// 媒体类型.
const (
	MediaImage = types.MediaImage
	MediaVideo = types.MediaVideo
)

// DetailPath 返回 v1 详情路径.
func DetailPath(id int) string {
	return PortfolioPath + "/" + strconv.Itoa(id)
}

// LegacyDetailURL 返回兼容详情路径（含查询串）.
func LegacyDetailURL(id int) string {
	q := url.Values{IDParam: {strconv.Itoa(id)}}
	return LegacyDetailPath + "?" + q.Encode()
}

// ThumbnailPath 返回缩略图路径，width <= 0 时使用服务端默认宽度.
func ThumbnailPath(id, width int) string {
	p := DetailPath(id) + "/thumbnail"
	if width > 0 {
		p += "?" + WidthParam + "=" + strconv.Itoa(width)
	}

	return p
}
