package catalog

import (
	"regexp"
	"sort"
	"time"

	"github.com/jinzhu/now"
)

// textDateFormats 英文书写的日期，如 "June 1, 2024"、"1 Jun 2024".
var textDateFormats = []string{
	"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006",
	"2 January 2006", "2 Jan 2006",
}

var dateParser = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats:  append(append([]string(nil), textDateFormats...), now.TimeFormats...),
}

// timeOnly 匹配不含日期部分的时刻，如 "10:00"、"3:04PM"；now 会把它们补成当天.
var timeOnly = regexp.MustCompile(`(?i)^\s*\d{1,2}(:\d{1,2}){0,2}(\.\d+)?\s*([ap]m)?\s*$`)

// ParseDate 把描述中的日期解析为时间，无法识别或只有时刻时 ok 为 false.
func ParseDate(s string) (time.Time, bool) {
	if s == "" || timeOnly.MatchString(s) {
		return time.Time{}, false
	}

	t, err := dateParser.Parse(s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// Order 按日期降序排列条目并重新编号为 1..N.
// 日期无法解析的条目保持原位置，其余条目按日期（同日期按原顺序）填入剩余位置.
func Order(entries []Entry) {
	type dated struct {
		entry Entry
		at    time.Time
	}

	slots := make([]int, 0, len(entries))
	valid := make([]dated, 0, len(entries))

	for i, e := range entries {
		if t, ok := ParseDate(e.Date); ok {
			slots = append(slots, i)
			valid = append(valid, dated{entry: e, at: t})
		}
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].at.After(valid[j].at) })

	for k, slot := range slots {
		entries[slot] = valid[k].entry
	}

	for i := range entries {
		entries[i].ID = i + 1
	}
}
