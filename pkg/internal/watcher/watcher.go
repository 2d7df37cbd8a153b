// Package watcher 监听作品集目录变化并通过 MQ 广播 folio.catalog.changed，
// 订阅端收到事件后使目录缓存失效.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/log"
	"github.com/yeisme/folio/pkg/queue"
)

// Producer 事件生产者标识.
const Producer = "folio-watcher"

// DefaultDebounce 同一子目录的事件在该窗口内合并为一条.
const DefaultDebounce = 250 * time.Millisecond

// Watcher 基于 fsnotify 监听根目录及其一级子目录.
type Watcher struct {
	root     string
	pub      queue.Publisher
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger

	// 窗口内按子目录累积的变化，order 记录首次出现的顺序
	pending map[string]*change
	order   []string
}

type change struct {
	path string
	op   fsnotify.Op
}

// Option Watcher 选项.
type Option func(*Watcher)

// WithDebounce 设置事件合并窗口，d <= 0 时每个事件立即发布.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New 创建 Watcher，根目录不存在时返回 catalog.ErrCollectionMissing.
func New(root string, pub queue.Publisher, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, catalog.ErrCollectionMissing
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		pub:      pub,
		fsw:      fsw,
		debounce: DefaultDebounce,
		logger:   log.Component("watcher"),
		pending:  make(map[string]*change),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// Run 处理事件直到 ctx 结束.窗口从子目录的第一个事件开始计时，到期后每个子目录发布一条事件.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.logger.Info().Str("root", w.root).Int("watched", len(w.fsw.WatchList())).Dur("debounce", w.debounce).Msg("watching portfolio collection")

	var (
		timer *time.Timer
		flush <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !w.handle(ev) {
				continue
			}

			if w.debounce <= 0 {
				w.flush(ctx)
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				flush = timer.C
			}
		case <-flush:
			timer, flush = nil, nil
			w.flush(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// handle 登记一个事件，返回是否产生了待发布的变化.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	// 纯权限变化不影响目录内容
	if ev.Op == fsnotify.Chmod {
		return false
	}

	folder := w.folderOf(ev.Name)

	// 新建的一级子目录需要立即加入监听，不等窗口结束
	if ev.Has(fsnotify.Create) && folder != "" && filepath.Dir(ev.Name) == w.root {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !catalog.IsHidden(folder) {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.logger.Warn().Err(err).Str("path", ev.Name).Msg("watch new folder failed")
			}
		}
	}

	c, ok := w.pending[folder]
	if !ok {
		c = &change{}
		w.pending[folder] = c
		w.order = append(w.order, folder)
	}

	c.path = ev.Name
	c.op |= ev.Op

	return true
}

// flush 为窗口内每个子目录发布一条合并后的事件.
func (w *Watcher) flush(ctx context.Context) {
	for _, folder := range w.order {
		c := w.pending[folder]

		payload := queue.CatalogChangedPayload{Root: w.root, Path: c.path, Folder: folder, Op: c.op.String()}
		if err := queue.PublishCatalogChanged(ctx, w.pub, payload, queue.WithProducer(Producer)); err != nil {
			w.logger.Error().Err(err).Str("path", c.path).Msg("publish catalog change failed")
			continue
		}

		w.logger.Debug().Str("op", payload.Op).Str("path", c.path).Msg("catalog change published")
	}

	clear(w.pending)
	w.order = w.order[:0]
}

// folderOf 返回路径所属的一级子目录名，根目录本身为空.
func (w *Watcher) folderOf(p string) string {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}

	return strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
}

func (w *Watcher) addTree() error {
	if err := w.fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.root, err)
	}

	for _, e := range entries {
		if !e.IsDir() || catalog.IsHidden(e.Name()) {
			continue
		}

		if err := w.fsw.Add(filepath.Join(w.root, e.Name())); err != nil {
			return fmt.Errorf("watch %s: %w", e.Name(), err)
		}
	}

	return nil
}

// Invalidator 由目录服务实现.
type Invalidator interface {
	Invalidate(reason string)
}

// Subscriber 注册 MQ handler 的最小接口，由 mq.Client 实现.
type Subscriber interface {
	AddHandler(name, topic string, fn message.NoPublishHandlerFunc)
}

// HandlerName 目录失效 handler 名称.
const HandlerName = "portfolio.catalog.invalidate"

// Subscribe 订阅目录变更事件，收到后调用 Invalidate.无法解析的消息直接确认丢弃.
func Subscribe(sub Subscriber, inv Invalidator) {
	l := log.Component("watcher")

	sub.AddHandler(HandlerName, queue.TopicCatalogChanged, func(msg *message.Message) error {
		env, err := queue.ParseCatalogChanged(msg)
		if err != nil {
			l.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop malformed catalog change")
			return nil
		}

		reason := env.Payload.Op + " " + env.Payload.Path
		if env.Payload.Folder != "" {
			reason = env.Payload.Op + " " + env.Payload.Folder
		}

		inv.Invalidate(reason)

		return nil
	})
}

