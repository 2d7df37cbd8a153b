// Package catalog 将作品集目录约定解析为有序、去重的作品列表.
//
// 目录约定：
//
//	<root>/
//	  <folder>/
//	    metadata.json   {"title": "...", "description": "...", "tags": [...], "date": "2024-06-01", "link": "..."}
//	    main.png        主图（可选，缺省取第一个图片或视频）
//	    a.jpg ...
//
// 每次调用都从文件系统重新计算，不维护索引；缓存由上层服务基于 Fingerprint 负责.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/folio/pkg/internal/types"
)

// DefaultConcurrency 并行解析目录的上限.
const DefaultConcurrency = 8

// Options 解析器配置.
type Options struct {
	Root        string // 作品集根目录
	URLPrefix   string // src/gallery 路径前缀
	Descriptor  string // 描述文件名
	Concurrency int
}

// Entry 是带有来源目录信息的轻量记录，供详情查找使用.
type Entry struct {
	types.PortfolioItem

	Folder string `json:"folder"`
	Main   string `json:"main"`
}

// Catalog 一次完整解析的结果.
type Catalog struct {
	Entries []Entry            `json:"entries"`
	Skipped map[SkipReason]int `json:"skipped,omitempty"`
}

// Items 返回对外的轻量记录列表，空目录返回空切片而非 nil.
func (c *Catalog) Items() []types.PortfolioItem {
	out := make([]types.PortfolioItem, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e.PortfolioItem)
	}

	return out
}

// Find 按 id 查找条目.
func (c *Catalog) Find(id int) (Entry, bool) {
	for _, e := range c.Entries {
		if e.ID == id {
			return e, true
		}
	}

	return Entry{}, false
}

// Resolver 作品集解析器.
type Resolver struct {
	opts Options
}

// NewResolver 创建解析器，空字段使用默认值.
func NewResolver(opts Options) *Resolver {
	if opts.Descriptor == "" {
		opts.Descriptor = "metadata.json"
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &Resolver{opts: opts}
}

// Root 返回根目录.
func (r *Resolver) Root() string { return r.opts.Root }

// URLPrefix 返回去掉首尾斜杠的媒体路径前缀，为空表示媒体不由本服务提供.
func (r *Resolver) URLPrefix() string { return strings.Trim(r.opts.URLPrefix, "/") }

// Resolve 遍历全部子目录，生成按日期排序并重新编号的目录.
// 单个目录的异常只会计入 Skipped，只有根目录缺失会返回 ErrCollectionMissing.
func (r *Resolver) Resolve(ctx context.Context) (*Catalog, error) {
	folders, err := r.folders()
	if err != nil {
		return nil, err
	}

	type result struct {
		entry  Entry
		reason SkipReason
	}

	results := make([]result, len(folders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, name := range folders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			e, reason := r.resolveFolder(name)
			results[i] = result{entry: e, reason: reason}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat := &Catalog{Entries: make([]Entry, 0, len(folders)), Skipped: map[SkipReason]int{}}

	for _, res := range results {
		if res.reason != "" {
			cat.Skipped[res.reason]++
			continue
		}

		cat.Entries = append(cat.Entries, res.entry)
	}

	// 编号先按枚举顺序分配，保证日期无法解析时的稳定顺序
	for i := range cat.Entries {
		cat.Entries[i].ID = i + 1
	}

	Order(cat.Entries)

	return cat, nil
}

// Detail 在已解析的目录中定位 id，并重新扫描该目录生成完整记录.
// 目录在两次请求之间被删除时返回 ErrItemNotFound.
func (r *Resolver) Detail(_ context.Context, cat *Catalog, id int) (*types.PortfolioDetail, error) {
	entry, ok := cat.Find(id)
	if !ok {
		return nil, ErrItemNotFound
	}

	dir := filepath.Join(r.opts.Root, entry.Folder)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, ErrItemNotFound
	}

	files, err := listFiles(dir)
	if err != nil {
		return nil, ErrItemNotFound
	}

	desc, err := LoadDescriptor(dir, r.opts.Descriptor, info.ModTime())
	if err != nil {
		return nil, ErrItemNotFound
	}

	names := Gallery(files, r.opts.Descriptor, entry.Main, MediaType(entry.Type))
	gallery := make([]string, 0, len(names))

	for _, n := range names {
		gallery = append(gallery, r.src(entry.Folder, n))
	}

	return &types.PortfolioDetail{
		PortfolioItem: entry.PortfolioItem,
		Description:   desc.Description,
		Gallery:       gallery,
	}, nil
}

// MediaPath 返回条目主媒体在文件系统中的路径.
func (r *Resolver) MediaPath(e Entry) string {
	return filepath.Join(r.opts.Root, e.Folder, e.Main)
}

func (r *Resolver) resolveFolder(name string) (Entry, SkipReason) {
	dir := filepath.Join(r.opts.Root, name)

	info, err := os.Stat(dir)
	if err != nil {
		return Entry{}, SkipUnreadable
	}

	files, err := listFiles(dir)
	if err != nil {
		return Entry{}, SkipUnreadable
	}

	if len(files) == 0 {
		return Entry{}, SkipEmpty
	}

	desc, err := LoadDescriptor(dir, r.opts.Descriptor, info.ModTime())
	if err != nil {
		return Entry{}, skipReasonOf(err)
	}

	main, kind, ok := SelectMain(files, r.opts.Descriptor)
	if !ok {
		return Entry{}, SkipNoMedia
	}

	return Entry{
		PortfolioItem: types.PortfolioItem{
			Title: desc.Title,
			Type:  string(kind),
			Src:   r.src(name, main),
			Tags:  desc.Tags,
			Date:  desc.Date,
			Link:  desc.Link,
		},
		Folder: name,
		Main:   main,
	}, ""
}

// src 拼接对外路径：<url_prefix>/<folder>/<file>.
func (r *Resolver) src(folder, file string) string {
	prefix := r.URLPrefix()
	if prefix == "" {
		return folder + "/" + file
	}

	return prefix + "/" + folder + "/" + file
}

// folders 按名称顺序列出根目录下的非隐藏子目录（跟随符号链接）.
func (r *Resolver) folders() ([]string, error) {
	info, err := os.Stat(r.opts.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCollectionMissing
		}

		return nil, fmt.Errorf("stat collection: %w", err)
	}

	if !info.IsDir() {
		return nil, ErrCollectionMissing
	}

	entries, err := os.ReadDir(r.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}

	out := make([]string, 0, len(entries))

	for _, e := range entries {
		if IsHidden(e.Name()) {
			continue
		}

		if isDirEntry(r.opts.Root, e) {
			out = append(out, e.Name())
		}
	}

	return out, nil
}

// listFiles 按名称顺序列出目录内的非隐藏普通文件（跟随符号链接）.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(entries))

	for _, e := range entries {
		if IsHidden(e.Name()) {
			continue
		}

		if e.Type().IsRegular() {
			out = append(out, e.Name())
			continue
		}

		if e.Type()&fs.ModeSymlink != 0 {
			if fi, err := os.Stat(filepath.Join(dir, e.Name())); err == nil && fi.Mode().IsRegular() {
				out = append(out, e.Name())
			}
		}
	}

	return out, nil
}

func isDirEntry(parent string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}

	if e.Type()&fs.ModeSymlink != 0 {
		fi, err := os.Stat(filepath.Join(parent, e.Name()))
		return err == nil && fi.IsDir()
	}

	return false
}
