package client

import (
	"strconv"
	"strings"
)

// Fragment URL 片段协议：#view=<id> 打开轮播，&fullscreen=true 同时打开全屏.
type Fragment struct {
	ID         int
	Fullscreen bool
}

// ParseFragment 解析 URL 片段，可带或不带前导 #.
// view 取值开头的连续数字作为 id，没有 view 或没有数字时 ok 为 false.
func ParseFragment(s string) (Fragment, bool) {
	s = strings.TrimPrefix(s, "#")

	var (
		f  Fragment
		ok bool
	)

	for _, part := range strings.Split(s, "&") {
		key, value, _ := strings.Cut(part, "=")

		switch key {
		case "view":
			if ok {
				continue
			}

			end := 0
			for end < len(value) && value[end] >= '0' && value[end] <= '9' {
				end++
			}

			id, err := strconv.Atoi(value[:end])
			if err != nil {
				continue
			}

			f.ID, ok = id, true
		case "fullscreen":
			if value == "true" {
				f.Fullscreen = true
			}
		}
	}

	if !ok {
		return Fragment{}, false
	}

	return f, true
}

// String 返回带 # 的片段；ID 为 0 表示网格视图，返回空串.
func (f Fragment) String() string {
	if f.ID == 0 {
		return ""
	}

	s := "#view=" + strconv.Itoa(f.ID)
	if f.Fullscreen {
		s += "&fullscreen=true"
	}

	return s
}
