// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集HTTP、作品目录解析与缓存相关指标.
//
// Example:
//
//	import "github.com/yeisme/folio/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/get-portfolio.php", "200").Inc()
//	metrics.CatalogItems.Set(12)
package metrics

import (
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/folio/pkg/configs"
)

const namespace = "folio"

// 全局指标变量，未启用时依然可以安全调用，只是不会被导出.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of active connections",
		},
	)

	// CatalogItems 最近一次解析得到的作品数.
	CatalogItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_catalog_items",
			Help:      "Number of items in the most recently resolved catalog",
		},
	)

	// FoldersSkipped 被跳过的目录，按原因统计.
	FoldersSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolio_folders_skipped_total",
			Help:      "Folders excluded from the catalog by reason",
		},
		[]string{"reason"},
	)

	// CatalogResolveDuration 目录解析耗时.
	CatalogResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "portfolio_catalog_resolve_seconds",
			Help:      "Time spent walking the collection and ordering items",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CatalogCache 服务端目录缓存命中情况.
	CatalogCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolio_catalog_cache_total",
			Help:      "Catalog cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	// DetailRequests 详情请求结果.
	DetailRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolio_detail_requests_total",
			Help:      "Detail lookups by outcome (found, not_found, error)",
		},
		[]string{"status"},
	)

	// ThumbnailRenders 缩略图生成情况.
	ThumbnailRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolio_thumbnail_total",
			Help:      "Thumbnail requests by result (cached, rendered, redirect, error)",
		},
		[]string{"result"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	registerOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	registerOnce.Do(func() {
		// 注册标准收集器
		if config.RuntimeMetrics {
			if err = registry.Register(collectors.NewGoCollector()); err != nil {
				return
			}

			if err = registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
				return
			}
		}

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveConnections,
			CatalogItems, FoldersSkipped, CatalogResolveDuration, CatalogCache,
			DetailRequests, ThumbnailRenders,
		} {
			if err = registry.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// StartMetricsServer 在给定 engine 上挂载 /metrics（以及可选的 pprof）.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		pp := engine.Group("/debug/pprof")
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))

		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			pp.GET("/"+name, gin.WrapH(pprof.Handler(name)))
		}
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler 返回注册表的 HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
