package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	fctx "github.com/yeisme/folio/pkg/context"
	"github.com/yeisme/folio/pkg/internal/types"
)

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary	定时任务列表
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := fctx.GetScheduler(c.Request.Context())
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "scheduler disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
func SchedulerQueueWaiting(c *gin.Context) {
	sched := fctx.GetScheduler(c.Request.Context())
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "scheduler disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}
