package handler

import (
	"errors"
	"net/http"
	"strconv"

	"llmrelay/internal/model"
	"llmrelay/internal/repository"
	"llmrelay/internal/service"

	"github.com/gin-gonic/gin"
)

type CallLogHandler struct {
	logService *service.CallLogService
}

func NewCallLogHandler(logService *service.CallLogService) *CallLogHandler {
	return &CallLogHandler{logService: logService}
}

// ListCallLogs 分页查询调用日志
func (h *CallLogHandler) ListCallLogs(c *gin.Context) {
	params := service.ListCallLogsParams{
		Page:  1,
		Limit: 20,
	}

	// 解析查询参数
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		params.Limit = limit
	}
	params.Tag = c.Query("tag")
	params.StartDate = c.Query("start_date")
	params.EndDate = c.Query("end_date")

	result, err := h.logService.List(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to list logs"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCallLog 获取单条日志详情
func (h *CallLogHandler) GetCallLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entry, err := h.logService.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "log not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to get log"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ListTags 去重后的 tag 列表
func (h *CallLogHandler) ListTags(c *gin.Context) {
	tags, err := h.logService.ListTags()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to list tags"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

// SetLocked 切换单条日志的锁定状态
func (h *CallLogHandler) SetLocked(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.SetLockedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Locked == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "locked field is required"})
		return
	}

	err := h.logService.SetLocked(id, *req.Locked)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "log not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to update lock state"})
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteCallLog 删除单条日志（不受锁定限制）
func (h *CallLogHandler) DeleteCallLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := h.logService.Delete(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "log not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete log"})
		return
	}

	c.Status(http.StatusNoContent)
}

// PurgeCallLogs 按保留策略清理。
// count_to_keep 与 days_to_keep 互斥，必须且只能给一个。
func (h *CallLogHandler) PurgeCallLogs(c *gin.Context) {
	countStr := c.Query("count_to_keep")
	daysStr := c.Query("days_to_keep")

	if (countStr == "") == (daysStr == "") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "exactly one of count_to_keep or days_to_keep is required"})
		return
	}

	var (
		deleted int64
		err     error
	)
	if countStr != "" {
		n, convErr := strconv.Atoi(countStr)
		if convErr != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "count_to_keep must be a non-negative integer"})
			return
		}
		deleted, err = h.logService.PurgeKeepLastN(n)
	} else {
		d, convErr := strconv.Atoi(daysStr)
		if convErr != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "days_to_keep must be a non-negative integer"})
			return
		}
		deleted, err = h.logService.PurgeKeepDays(d)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to purge logs"})
		return
	}

	c.JSON(http.StatusOK, model.PurgeResponse{Deleted: deleted})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid log id"})
		return 0, false
	}
	return id, true
}
