package kv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

// 不支持原生过期的后端（memory、groupcache、nats）把过期时间写进值头部：
//
//	"FTTL" | 8 字节大端 unix 毫秒 | 原值
//
// 缩略图是原始 JPEG 字节，定长二进制头不会像 JSON 那样把值膨胀成 base64.
var ttlMagic = []byte("FTTL")

const ttlHeaderLen = 4 + 8

var errTTLHeader = errors.New("kv: truncated ttl header")

func encodeWithTTL(value []byte, ttl time.Duration) ([]byte, bool, error) {
	return encodeWithTTLAt(value, ttl, time.Now())
}

// encodeWithTTLAt ttl <= 0 时原样返回，第二个返回值表示是否加了头.
func encodeWithTTLAt(value []byte, ttl time.Duration, now time.Time) ([]byte, bool, error) {
	if ttl <= 0 {
		return value, false, nil
	}

	out := make([]byte, ttlHeaderLen+len(value))
	copy(out, ttlMagic)
	binary.BigEndian.PutUint64(out[len(ttlMagic):ttlHeaderLen], uint64(now.Add(ttl).UnixMilli()))
	copy(out[ttlHeaderLen:], value)

	return out, true, nil
}

// decodeWithTTL 返回 (原值, 是否已过期, 是否带头, error).
func decodeWithTTL(b []byte, now time.Time) ([]byte, bool, bool, error) {
	if !bytes.HasPrefix(b, ttlMagic) {
		return b, false, false, nil
	}

	if len(b) < ttlHeaderLen {
		return nil, false, true, errTTLHeader
	}

	expires := int64(binary.BigEndian.Uint64(b[len(ttlMagic):ttlHeaderLen]))
	if expires > 0 && now.UnixMilli() >= expires {
		return nil, true, true, nil
	}

	return b[ttlHeaderLen:], false, true, nil
}
