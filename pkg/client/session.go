package client

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// SlideState 轮播单项的渲染状态.
type SlideState int

const (
	SlideUnbuilt SlideState = iota
	SlidePlaceholder
	SlideLoading
	SlideShown
)

func (s SlideState) String() string {
	switch s {
	case SlideUnbuilt:
		return "unbuilt"
	case SlidePlaceholder:
		return "placeholder-shown"
	case SlideLoading:
		return "detail-loading"
	case SlideShown:
		return "detail-shown"
	default:
		return "unknown"
	}
}

// GridState 网格状态.
type GridState int

const (
	GridLoading GridState = iota
	GridPopulated
	GridError
)

func (s GridState) String() string {
	switch s {
	case GridLoading:
		return "loading"
	case GridPopulated:
		return "populated"
	case GridError:
		return "error"
	default:
		return "unknown"
	}
}

// Session 一次页面会话的状态：详情请求记录、各轮播项状态、轮播是否已构建.
// 详情请求记录只增不减，保证同一会话内每项最多请求一次.
type Session struct {
	ID        ulid.ULID
	StartedAt time.Time

	mu        sync.Mutex
	requested map[int]struct{}
	slides    map[int]SlideState
	built     bool
}

// NewSession 创建会话.
func NewSession() *Session {
	now := time.Now()

	return &Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader),
		StartedAt: now,
		requested: make(map[int]struct{}),
		slides:    make(map[int]SlideState),
	}
}

// MarkRequested 记录一次详情请求，首次记录返回 true.
func (s *Session) MarkRequested(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requested[id]; ok {
		return false
	}

	s.requested[id] = struct{}{}

	return true
}

// Requested 返回该 id 是否已请求过详情.
func (s *Session) Requested(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.requested[id]

	return ok
}

// RequestCount 已发出的详情请求数.
func (s *Session) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requested)
}

// State 返回轮播项状态，未构建时为 SlideUnbuilt.
func (s *Session) State(id int) SlideState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.slides[id]
}

// Built 返回轮播是否已构建.
func (s *Session) Built() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.built
}

// build 为全部 id 放置占位项，只在会话内第一次调用时生效.
func (s *Session) build(ids []int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built {
		return false
	}

	for _, id := range ids {
		s.slides[id] = SlidePlaceholder
	}

	s.built = true

	return true
}

// transition 仅在当前状态为 from 时切换到 to.
func (s *Session) transition(id int, from, to SlideState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slides[id] != from {
		return false
	}

	s.slides[id] = to

	return true
}
