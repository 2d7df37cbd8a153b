package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobCatalogWarm = "portfolio.catalog.warm"
)

// Cron 表达式常量.
const (
	CronCatalogWarm = "*/10 * * * *"
)
