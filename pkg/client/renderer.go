package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/log"
)

// Renderer 渐进加载的状态机：
//
//	网格:  loading -> populated | error
//	轮播项: unbuilt -> placeholder-shown -> detail-loading -> detail-shown
//
// 详情请求并发发出、乱序到达，到达后按 id 更新对应项；Detach 之后到达的结果直接丢弃.
type Renderer struct {
	session *Session
	fetcher Fetcher
	cache   *CatalogCache
	prober  Prober
	preload time.Duration
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	grid       GridState
	gridErr    error
	fromCache  bool
	items      []api.PortfolioItem
	index      map[int]int
	details    map[int]*api.PortfolioDetail
	rendered   map[int]chan struct{}
	open       bool
	current    int
	fullscreen bool
	detached   bool
}

// RendererOption 渲染器选项.
type RendererOption func(*Renderer)

// WithPreloader 设置媒体预加载探测器，未设置时跳过预加载.
func WithPreloader(p Prober) RendererOption {
	return func(r *Renderer) { r.prober = p }
}

// WithPreloadTimeout 设置预加载上限.
func WithPreloadTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		if d > 0 {
			r.preload = d
		}
	}
}

// WithSession 使用指定会话.
func WithSession(s *Session) RendererOption {
	return func(r *Renderer) { r.session = s }
}

// NewRenderer 创建渲染器，cache 为 nil 时每次都走网络.
func NewRenderer(fetcher Fetcher, cache *CatalogCache, opts ...RendererOption) *Renderer {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Renderer{
		fetcher:  fetcher,
		cache:    cache,
		preload:  DefaultPreloadTimeout,
		ctx:      ctx,
		cancel:   cancel,
		index:    make(map[int]int),
		details:  make(map[int]*api.PortfolioDetail),
		rendered: make(map[int]chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.session == nil {
		r.session = NewSession()
	}

	r.logger = log.Component("client").With().Str("session", r.session.ID.String()).Logger()

	return r
}

// Session 返回当前会话.
func (r *Renderer) Session() *Session { return r.session }

// Load 取得轻量目录（优先本地缓存）并填充网格.目录为空或请求失败时网格进入 error 状态.
// 首屏前最多预加载 InitialPreload 项，其余在后台继续.
func (r *Renderer) Load(ctx context.Context) error {
	items, cached, err := r.fetchCatalog(ctx)
	if err == nil && len(items) == 0 {
		err = ErrEmptyCatalog
	}

	if err != nil {
		r.mu.Lock()
		r.grid, r.gridErr = GridError, err
		r.mu.Unlock()

		r.logger.Error().Err(err).Msg("error loading portfolio")

		return err
	}

	head, rest := items, []api.PortfolioItem(nil)
	if len(items) > InitialPreload {
		head, rest = items[:InitialPreload], items[InitialPreload:]
	}

	if r.prober != nil {
		res := Preload(ctx, r.prober, head, r.preload)
		r.logger.Debug().Int("loaded", res.Loaded).Int("failed", res.Failed).Bool("timed_out", res.TimedOut).Msg("initial preload")
	}

	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		return ErrDetached
	}

	r.items = items
	r.fromCache = cached
	r.index = make(map[int]int, len(items))

	for i, it := range items {
		r.index[it.ID] = i
	}

	r.grid, r.gridErr = GridPopulated, nil

	background := r.prober != nil && len(rest) > 0
	if background {
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if background {
		go func() {
			defer r.wg.Done()
			Preload(r.ctx, r.prober, rest, r.preload)
		}()
	}

	return nil
}

func (r *Renderer) fetchCatalog(ctx context.Context) ([]api.PortfolioItem, bool, error) {
	if r.cache != nil {
		if items, ok := r.cache.Load(ctx); ok {
			r.logger.Debug().Int("items", len(items)).Msg("using cached portfolio data")
			return items, true, nil
		}
	}

	items, err := r.fetcher.Catalog(ctx)
	if err != nil {
		return nil, false, err
	}

	if r.cache != nil && len(items) > 0 {
		if err := r.cache.Save(ctx, items); err != nil {
			r.logger.Warn().Err(err).Msg("failed to save to cache")
		}
	}

	return items, false, nil
}

// Grid 返回网格状态与进入 error 状态的原因.
func (r *Renderer) Grid() (GridState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.grid, r.gridErr
}

// FromCache 返回目录是否来自本地缓存.
func (r *Renderer) FromCache() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.fromCache
}

// Items 返回网格中的轻量目录.
func (r *Renderer) Items() []api.PortfolioItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]api.PortfolioItem, len(r.items))
	copy(out, r.items)

	return out
}

// OpenCarousel 打开轮播并定位到 id：首次打开时为全部条目放置占位项，随后立即请求 id 的详情.
func (r *Renderer) OpenCarousel(ctx context.Context, id int) error {
	r.mu.Lock()

	if r.detached {
		r.mu.Unlock()
		return ErrDetached
	}

	if r.grid != GridPopulated {
		r.mu.Unlock()
		return ErrNotReady
	}

	if _, ok := r.index[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("open carousel %d: %w", id, ErrNotFound)
	}

	ids := make([]int, len(r.items))
	for i, it := range r.items {
		ids[i] = it.ID
	}

	r.open, r.current = true, id
	r.mu.Unlock()

	if r.session.build(ids) {
		r.logger.Debug().Int("slides", len(ids)).Msg("carousel built")
	}

	r.Reveal(id)

	return nil
}

// Reveal 表示轮播项进入（或即将进入）可视区域，触发其详情请求；同一会话内每项最多请求一次.
func (r *Renderer) Reveal(ids ...int) {
	for _, id := range ids {
		r.reveal(id)
	}
}

func (r *Renderer) reveal(id int) {
	r.mu.Lock()

	// wg.Add 与 Detach 的 detached 标记在同一把锁下，保证 Wait 之后不再有新任务
	if r.detached || r.session.State(id) != SlidePlaceholder || !r.session.MarkRequested(id) {
		r.mu.Unlock()
		return
	}

	r.session.transition(id, SlidePlaceholder, SlideLoading)
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		detail, err := r.fetcher.Detail(r.ctx, id)
		r.complete(id, detail, err)
	}()
}

// complete 只更新 id 对应的轮播项.
func (r *Renderer) complete(id int, detail *api.PortfolioDetail, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.detached {
		return
	}

	if err != nil {
		// 保持占位，不自动重试
		r.session.transition(id, SlideLoading, SlidePlaceholder)
		r.logger.Warn().Err(err).Int("id", id).Msg("failed to load item details")

		return
	}

	r.details[id] = detail
	r.session.transition(id, SlideLoading, SlideShown)

	close(r.renderedLocked(id))
}

// Rendered 返回在 id 的详情显示后关闭的 channel.详情加载失败时不会关闭.
func (r *Renderer) Rendered(id int) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.renderedLocked(id)
}

func (r *Renderer) renderedLocked(id int) chan struct{} {
	ch, ok := r.rendered[id]
	if !ok {
		ch = make(chan struct{})
		r.rendered[id] = ch
	}

	return ch
}

// State 返回轮播项状态.
func (r *Renderer) State(id int) SlideState {
	return r.session.State(id)
}

// Detail 返回已显示的完整记录.
func (r *Renderer) Detail(id int) (*api.PortfolioDetail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.details[id]

	return d, ok
}

// Navigate 按 URL 片段打开轮播，fullscreen 为 true 时同时打开全屏层.
func (r *Renderer) Navigate(ctx context.Context, f Fragment) error {
	if err := r.OpenCarousel(ctx, f.ID); err != nil {
		return err
	}

	r.mu.Lock()
	r.fullscreen = f.Fullscreen
	r.mu.Unlock()

	return nil
}

// SetFullscreen 打开或关闭全屏层，轮播未打开时无效.
func (r *Renderer) SetFullscreen(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.open {
		r.fullscreen = on
	}
}

// CloseCarousel 回到网格视图.已构建的占位项与详情保留到会话结束.
func (r *Renderer) CloseCarousel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.open, r.fullscreen, r.current = false, false, 0
}

// Fragment 返回与当前视图对应的 URL 片段，网格视图为零值.
func (r *Renderer) Fragment() Fragment {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return Fragment{}
	}

	return Fragment{ID: r.current, Fullscreen: r.fullscreen}
}

// Detach 结束会话：取消进行中的请求并丢弃之后到达的结果，等待后台任务退出.
func (r *Renderer) Detach() {
	r.mu.Lock()
	r.detached = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
