// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/internal/service"
	"github.com/yeisme/folio/pkg/log"
	"github.com/yeisme/folio/pkg/queue"
	"github.com/yeisme/folio/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 按 scheduler.warm_cron 预热目录缓存并刷新作品数指标
//
// pub 可为 nil，此时不广播预热结果.
func RegisterCronJobs(sched *scheduler.Scheduler, svc *service.PortfolioService, pub queue.Publisher, cron string) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if svc == nil {
		return fmt.Errorf("portfolio service is nil")
	}

	if cron == "" {
		cron = CronCatalogWarm
	}

	return sched.AddCron(JobCatalogWarm, cron, func(ctx context.Context) error {
		res := WarmCatalog(ctx, svc, pub)
		if res.Error != "" && !res.Missing {
			return errors.New(res.Error)
		}

		return nil
	})
}

// WarmCatalog 解析一次目录，使缓存保持热状态，并返回结果摘要.
func WarmCatalog(ctx context.Context, svc *service.PortfolioService, pub queue.Publisher) queue.CatalogWarmedPayload {
	l := log.Logger().With().Str("job", JobCatalogWarm).Logger()
	start := time.Now()

	cat, err := svc.Catalog(ctx)

	result := queue.CatalogWarmedPayload{Duration: time.Since(start).String()}

	switch {
	case errors.Is(err, catalog.ErrCollectionMissing):
		result.Error, result.Missing = err.Error(), true
		l.Warn().Msg("portfolio directory not found, nothing to warm")
	case err != nil:
		result.Error = err.Error()
		l.Error().Err(err).Msg("catalog warm failed")
	default:
		result.Items = len(cat.Entries)
		result.Cached = svc.CacheEnabled()
		l.Info().Int("items", result.Items).Str("took", result.Duration).Msg("catalog warmed")
	}

	if pub != nil {
		if perr := queue.PublishCatalogWarmed(ctx, pub, result, queue.WithProducer("folio-scheduler")); perr != nil {
			l.Warn().Err(perr).Msg("publish warm result failed")
		}
	}

	return result
}
