package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/folio/pkg/rule"
)

const (
	// DefaultDescription 描述缺失时的占位文本.
	DefaultDescription = "No description provided."
	// DateLayout 日期缺省时使用目录修改时间的格式.
	DateLayout = "2006-01-02"
)

// Descriptor 目录描述文件（metadata.json）解析结果，已应用默认值.
type Descriptor struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	Link        *string  `json:"link"`
}

// descriptorFields 只承载必须字段，用于规则校验.
type descriptorFields struct {
	Title *string `rule:"required"`
}

// LoadDescriptor 读取 dir/name 并解析为 Descriptor.
// 文件缺失、JSON 非对象或缺少 title 均返回错误，调用方据此跳过该目录.
func LoadDescriptor(dir, name string, folderModTime time.Time) (Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, errNoDescriptor
		}

		return Descriptor{}, fmt.Errorf("%w: %w", errInvalidDescriptor, err)
	}

	return ParseDescriptor(data, folderModTime)
}

// ParseDescriptor 解析描述文件内容.
func ParseDescriptor(data []byte, folderModTime time.Time) (Descriptor, error) {
	var doc map[string]any
	if err := sonic.Unmarshal(data, &doc); err != nil || doc == nil {
		return Descriptor{}, errInvalidDescriptor
	}

	fields := descriptorFields{}
	if title, ok := doc["title"].(string); ok {
		fields.Title = &title
	}

	if err := rule.ValidateStruct(fields); err != nil {
		return Descriptor{}, errNoTitle
	}

	d := Descriptor{
		Title:       *fields.Title,
		Description: DefaultDescription,
		Tags:        []string{},
		Date:        folderModTime.Format(DateLayout),
	}

	if v, ok := doc["description"].(string); ok {
		d.Description = v
	}

	if v, ok := doc["date"].(string); ok {
		d.Date = v
	}

	if v, ok := doc["link"].(string); ok {
		d.Link = &v
	}

	if tags, ok := doc["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				d.Tags = append(d.Tags, s)
			}
		}
	}

	return d, nil
}
