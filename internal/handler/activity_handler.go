package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhive/internal/repository"
)

const recentLogLimit = 10

type ActivityHandler struct {
	repo   *repository.ActivityLogRepository
	logger *zap.Logger
}

func NewActivityHandler(repo *repository.ActivityLogRepository, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{repo: repo, logger: logger}
}

// ListTaskLogs returns the full audit trail of one task, newest first.
func (h *ActivityHandler) ListTaskLogs(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	logs, err := h.repo.ListByTask(c.Request.Context(), taskID, limit, offset)
	if err != nil {
		h.logger.Error("ListTaskLogs: failed to fetch logs",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task logs"})
		return
	}

	if len(logs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task logs not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// RecentUserActivity returns at most the ten newest actions the
// authenticated user took in a workspace.
func (h *ActivityHandler) RecentUserActivity(c *gin.Context) {
	workspaceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return
	}

	userID := c.GetInt64("user_id")
	logs, err := h.repo.ListByActor(c.Request.Context(), workspaceID, userID, recentLogLimit, 0)
	if err != nil {
		h.logger.Error("RecentUserActivity: failed to fetch logs",
			zap.Int64("workspace_id", workspaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ListUserActivity returns the authenticated user's own actions in a
// workspace.
func (h *ActivityHandler) ListUserActivity(c *gin.Context) {
	workspaceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return
	}

	userID := c.GetInt64("user_id")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	logs, err := h.repo.ListByActor(c.Request.Context(), workspaceID, userID, limit, offset)
	if err != nil {
		h.logger.Error("ListUserActivity: failed to fetch logs",
			zap.Int64("workspace_id", workspaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
