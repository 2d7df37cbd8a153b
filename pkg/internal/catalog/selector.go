package catalog

import "strings"

// SelectMain 从目录文件列表（保持枚举顺序）中挑选主媒体:
//  1. 文件名（去扩展名）大小写不敏感等于 main 且为图片，首个命中者
//  2. 否则为第一个非描述文件、非隐藏且为图片或视频的文件
//
// 都不满足时 ok 为 false，该目录不产出作品.
func SelectMain(files []string, descriptor string) (name string, kind MediaType, ok bool) {
	for _, f := range files {
		if strings.EqualFold(stem(f), "main") && Classify(f) == MediaImage {
			return f, MediaImage, true
		}
	}

	for _, f := range files {
		if f == descriptor || IsHidden(f) {
			continue
		}

		if t := Classify(f); t != MediaNone {
			return f, t, true
		}
	}

	return "", MediaNone, false
}

// Gallery 返回目录内所有图片，主图为图片时固定在首位且不重复.
func Gallery(files []string, descriptor, main string, kind MediaType) []string {
	out := make([]string, 0, len(files))
	if kind == MediaImage {
		out = append(out, main)
	}

	for _, f := range files {
		if f == descriptor || IsHidden(f) || f == main {
			continue
		}

		if Classify(f) == MediaImage {
			out = append(out, f)
		}
	}

	return out
}
