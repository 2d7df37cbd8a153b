package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	kv "github.com/yeisme/folio/pkg/internal/storage/kv"
)

// Storage 客户端持久化存储，语义同浏览器 localStorage：按键存取整段字节.
type Storage interface {
	// Get 读取键，不存在时返回 ErrNoEntry.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove 删除键，键不存在不算错误.
	Remove(ctx context.Context, key string) error
}

// FileStorage 每个键一个文件，写入经临时文件原子替换，读写用同名 .lock 文件加锁，
// 多个进程共用同一缓存目录时不会读到半截数据.
type FileStorage struct {
	dir string
}

// NewFileStorage 创建文件存储，目录不存在时自动创建.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &FileStorage{dir: dir}, nil
}

// Dir 返回存储目录.
func (s *FileStorage) Dir() string { return s.dir }

func (s *FileStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	lock := flock.New(p + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	defer lock.Unlock() //nolint:errcheck

	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoEntry
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return b, nil
}

func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	lock := flock.New(p + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer lock.Unlock() //nolint:errcheck

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func (s *FileStorage) Remove(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	lock := flock.New(p + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer lock.Unlock() //nolint:errcheck

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

// KVStorage 把任意 KV 后端当作客户端存储，键不过期，过期由 CatalogCache 自己判断.
type KVStorage struct {
	store  kv.KVStore
	prefix string
}

// NewKVStorage 创建 KV 存储，prefix 用于与其他键隔离.
func NewKVStorage(store kv.KVStore, prefix string) *KVStorage {
	return &KVStorage{store: store, prefix: prefix}
}

func (s *KVStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.store.Get(ctx, s.prefix+key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, ErrNoEntry
	}

	return b, err
}

func (s *KVStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.store.Set(ctx, s.prefix+key, value, 0)
}

func (s *KVStorage) Remove(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.prefix+key)
}
