package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhive/internal/repository"
	"taskhive/internal/service/pipeline"
	"taskhive/internal/service/subscription"
)

type SubscriberHandler struct {
	tasks         *repository.TaskRepository
	subscriptions *subscription.Service
	pipeline      *pipeline.Pipeline
	logger        *zap.Logger
}

func NewSubscriberHandler(tasks *repository.TaskRepository, subscriptions *subscription.Service, pipeline *pipeline.Pipeline, logger *zap.Logger) *SubscriberHandler {
	return &SubscriberHandler{
		tasks:         tasks,
		subscriptions: subscriptions,
		pipeline:      pipeline,
		logger:        logger,
	}
}

// ListSubscribers returns the current recipient set of a task.
func (h *SubscriberHandler) ListSubscribers(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	subscribers, err := h.pipeline.ListRecipients(c.Request.Context(), taskID)
	if err != nil {
		h.logger.Error("ListSubscribers: failed to fetch subscribers",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscribers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": subscribers})
}

type subscriberRequest struct {
	UserIDs []int64 `json:"user_ids" binding:"required"`
}

// Subscribe adds users to a task's subscriber set. Explicit subscription
// bypasses the auto-subscribe preference.
func (h *SubscriberHandler) Subscribe(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids required"})
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("Subscribe: failed to load task",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return
	}

	if err := h.subscriptions.Subscribe(c.Request.Context(), task, req.UserIDs, true); err != nil {
		if errors.Is(err, subscription.ErrNotInWorkspace) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is not a member of the workspace"})
			return
		}
		h.logger.Error("Subscribe: failed to subscribe users",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Unsubscribe removes users from a task's subscriber set. The task creator
// is never removed.
func (h *SubscriberHandler) Unsubscribe(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids required"})
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		h.logger.Error("Unsubscribe: failed to load task",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return
	}

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), task, req.UserIDs); err != nil {
		h.logger.Error("Unsubscribe: failed to unsubscribe users",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
