package catalog

import "errors"

var (
	// ErrCollectionMissing 作品集根目录不存在或不是目录.
	ErrCollectionMissing = errors.New("portfolio directory not found")
	// ErrItemNotFound 给定 id 没有对应作品.
	ErrItemNotFound = errors.New("portfolio item not found")

	// 以下为单个目录被跳过的原因，不会向上传播.
	errNoDescriptor      = errors.New("descriptor missing")
	errInvalidDescriptor = errors.New("descriptor is not a json object")
	errNoTitle           = errors.New("descriptor has no title")
)

// SkipReason 目录被排除出目录的原因，用于指标与调试日志.
type SkipReason string

const (
	SkipEmpty             SkipReason = "empty"
	SkipNoDescriptor      SkipReason = "no_descriptor"
	SkipInvalidDescriptor SkipReason = "invalid_descriptor"
	SkipNoTitle           SkipReason = "no_title"
	SkipNoMedia           SkipReason = "no_media"
	SkipUnreadable        SkipReason = "unreadable"
)

func skipReasonOf(err error) SkipReason {
	switch {
	case errors.Is(err, errNoDescriptor):
		return SkipNoDescriptor
	case errors.Is(err, errNoTitle):
		return SkipNoTitle
	default:
		return SkipInvalidDescriptor
	}
}
