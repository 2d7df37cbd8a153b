package service

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DescriptionRenderer 把描述文本渲染为安全的 HTML：空行分段，单个换行转为 <br>，链接加 nofollow.
type DescriptionRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewDescriptionRenderer 创建描述渲染器.
func NewDescriptionRenderer() *DescriptionRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &DescriptionRenderer{md: md, policy: policy}
}

// Render 渲染描述，失败时退化为转义后的纯文本段落.
func (r *DescriptionRenderer) Render(text string) string {
	if text == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return r.policy.Sanitize("<p>" + bluemonday.StrictPolicy().Sanitize(text) + "</p>")
	}

	return string(bytes.TrimSpace(r.policy.SanitizeBytes(buf.Bytes())))
}
