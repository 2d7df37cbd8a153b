package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/internal/service"
	"github.com/yeisme/folio/pkg/internal/types"
	"github.com/yeisme/folio/pkg/log"
)

// PortfolioHandlers 作品集相关处理器.
type PortfolioHandlers struct {
	svc    *service.PortfolioService
	thumbs *service.ThumbnailService
}

// NewPortfolioHandlers 创建处理器，thumbs 为 nil 时缩略图接口一律重定向到原图.
func NewPortfolioHandlers(svc *service.PortfolioService, thumbs *service.ThumbnailService) *PortfolioHandlers {
	return &PortfolioHandlers{svc: svc, thumbs: thumbs}
}

// Catalog 返回轻量作品列表.
//
//	@Summary		作品目录
//	@Description	根目录缺失时仍返回 200，响应体为 {"error": "..."}，客户端需检查 error 键
//	@Tags			作品集
//	@Produce		json
//	@Success		200	{array}		types.PortfolioItem
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/v1/portfolio [get]
//	@Router			/get-portfolio.php [get]
func (h *PortfolioHandlers) Catalog(c *gin.Context) {
	items, err := h.svc.Items(c.Request.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrCollectionMissing) {
			c.JSON(http.StatusOK, types.ErrorResponse{Error: api.MsgCollectionMissing})
			return
		}

		log.Logger().Error().Err(err).Msg("resolve catalog failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})

		return
	}

	c.JSON(http.StatusOK, items)
}

// DetailByQuery 按 ?id= 返回完整记录.
//
//	@Summary	作品详情（兼容路径）
//	@Tags		作品集
//	@Produce	json
//	@Param		id	query		string	true	"作品 id，按整数转换，非数字视为 0"
//	@Success	200	{object}	types.PortfolioDetail
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/get-item-details.php [get]
func (h *PortfolioHandlers) DetailByQuery(c *gin.Context) {
	h.detail(c, catalog.CoerceID(c.Query(api.IDParam)))
}

// Detail 按路径参数返回完整记录.
//
//	@Summary	作品详情
//	@Tags		作品集
//	@Produce	json
//	@Param		id	path		string	true	"作品 id"
//	@Success	200	{object}	types.PortfolioDetail
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/portfolio/{id} [get]
func (h *PortfolioHandlers) Detail(c *gin.Context) {
	h.detail(c, catalog.CoerceID(c.Param("id")))
}

func (h *PortfolioHandlers) detail(c *gin.Context, id int) {
	detail, err := h.svc.Detail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: api.MsgItemNotFound})
			return
		}

		log.Logger().Error().Err(err).Int("id", id).Msg("resolve detail failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})

		return
	}

	c.JSON(http.StatusOK, detail)
}

// Thumbnail 返回主图缩略图，无法生成缩略图的作品重定向到原始媒体.
//
//	@Summary	作品缩略图
//	@Tags		作品集
//	@Produce	jpeg
//	@Param		id	path	string	true	"作品 id"
//	@Param		w	query	int		false	"目标宽度（像素）"
//	@Success	200
//	@Success	302
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/portfolio/{id}/thumbnail [get]
func (h *PortfolioHandlers) Thumbnail(c *gin.Context) {
	ctx := c.Request.Context()

	entry, err := h.svc.Entry(ctx, catalog.CoerceID(c.Param("id")))
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: api.MsgItemNotFound})
			return
		}

		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})

		return
	}

	if h.thumbs == nil || !service.Thumbnailable(entry.Main) {
		h.redirectMedia(c, entry)
		return
	}

	width, _ := strconv.Atoi(c.Query(api.WidthParam))

	data, cached, err := h.thumbs.Render(ctx, h.svc.Resolver().MediaPath(entry), width)
	if err != nil {
		log.Logger().Warn().Err(err).Str("src", entry.Src).Msg("thumbnail failed, redirecting to original")
		h.redirectMedia(c, entry)

		return
	}

	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", data)
}

// redirectMedia 重定向到媒体路由下的原始文件；url_prefix 为空时媒体路由未挂载，返回 404.
func (h *PortfolioHandlers) redirectMedia(c *gin.Context, entry catalog.Entry) {
	if h.svc.Resolver().URLPrefix() == "" {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: api.MsgMediaNotServed})
		return
	}

	c.Redirect(http.StatusFound, "/"+entry.Src)
}
