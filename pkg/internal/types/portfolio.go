package types

// 媒体类型.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// PortfolioItem 目录接口返回的轻量记录，不含描述与图集.
type PortfolioItem struct {
	ID    int      `json:"id"`
	Title string   `json:"title"`
	Type  string   `json:"type"` // image | video
	Src   string   `json:"src"`
	Tags  []string `json:"tags"`
	Date  string   `json:"date"`
	Link  *string  `json:"link"`
}

// PortfolioDetail 详情接口返回的完整记录.
type PortfolioDetail struct {
	PortfolioItem

	Description     string   `json:"description"`
	DescriptionHTML string   `json:"descriptionHtml,omitempty"`
	Gallery         []string `json:"gallery"`
}

// ErrorResponse 统一错误体，客户端以是否含 error 键区分目录与错误.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse 健康检查返回.
type HealthResponse struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
