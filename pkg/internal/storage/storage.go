// Package storage 聚合服务端使用的共享资源：KV（目录缓存）与 MQ（目录变更事件）.
//
// Example:
//
// 初始化
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // 处理错误
//	}
//	defer mgr.Close()
//
// 获取客户端
//
//	kvClient := mgr.GetKVClient()
//	mqClient := mgr.GetMQClient()
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/yeisme/folio/pkg/configs"
	kvc "github.com/yeisme/folio/pkg/internal/storage/kv"
	mqc "github.com/yeisme/folio/pkg/internal/storage/mq"
	flog "github.com/yeisme/folio/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		mgr, err = New(ctx, configs.GetConfig())
		if err == nil {
			flog.Logger().Info().
				Str("kv", string(mgr.KV.Type)).
				Str("mq", string(mgr.MQ.Type)).
				Msg("storage manager initialized")
		}
	})

	return mgr, err
}

// New 按给定配置创建 Manager，不影响全局实例.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	kvi, err := kvc.NewKVClientWithConfig(ctx, cfg.KV)
	if err != nil {
		return nil, err
	}

	l := flog.Component("mq")

	mqi, err := mqc.New(ctx, &cfg.MQ, &l)
	if err != nil {
		_ = kvi.Close()
		return nil, err
	}

	return &Manager{KV: kvi, MQ: mqi}, nil
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	if m == nil {
		return nil
	}

	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	if m == nil {
		return nil
	}

	return m.MQ
}

// Close 释放所有资源.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error
	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	return errors.Join(errs...)
}
