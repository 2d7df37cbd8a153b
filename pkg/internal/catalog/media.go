package catalog

import (
	"path/filepath"
	"strings"
)

// MediaType 文件分类结果.
type MediaType string

const (
	MediaNone  MediaType = ""
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

var (
	imageExts = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "svg": {}}
	videoExts = map[string]struct{}{"mp4": {}, "webm": {}, "ogg": {}, "mov": {}}
)

// Extension 返回最后一个 . 之后的小写扩展名，无扩展名时为空.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Classify 按扩展名（大小写不敏感）判断文件是图片、视频还是其他.
func Classify(name string) MediaType {
	ext := Extension(name)
	if _, ok := imageExts[ext]; ok {
		return MediaImage
	}

	if _, ok := videoExts[ext]; ok {
		return MediaVideo
	}

	return MediaNone
}

// IsHidden 以 . 开头的文件永远不参与候选.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
