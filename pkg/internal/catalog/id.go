package catalog

import (
	"math"
	"strings"
)

// CoerceID 按整数强制转换的规则解析外部输入：忽略前导空白，可选符号，读取前导数字.
// 非数字输入得到 0（不匹配任何作品），溢出时饱和到 int 边界.
func CoerceID(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if s == "" {
		return 0
	}

	neg := false

	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	n := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}

		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			if neg {
				return math.MinInt
			}

			return math.MaxInt
		}

		n = n*10 + d
	}

	if neg {
		return -n
	}

	return n
}
