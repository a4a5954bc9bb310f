package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhive/internal/model"
	"taskhive/internal/repository"
	"taskhive/internal/service/changes"
	"taskhive/internal/service/pipeline"
)

type TaskHandler struct {
	repo     *repository.TaskRepository
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

func NewTaskHandler(repo *repository.TaskRepository, pipeline *pipeline.Pipeline, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{repo: repo, pipeline: pipeline, logger: logger}
}

// UpdateTask applies a partial scalar update and triggers the activity
// pipeline for the changed fields. The mutation commits first; an enqueue
// failure is logged but never rolls it back.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one field required"})
		return
	}

	actorID := c.GetInt64("user_id")
	now := time.Now().UTC()

	changed, err := h.repo.UpdateFields(c.Request.Context(), taskID, fields, actorID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		if strings.HasPrefix(err.Error(), "unknown task field") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("UpdateTask: failed to update task",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	if err := h.pipeline.OnTaskSaved(c.Request.Context(), taskID, changed, actorID, now); err != nil {
		h.logger.Error("UpdateTask: failed to enqueue activity",
			zap.Int64("task_id", taskID),
			zap.Strings("fields", changed),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "changed": changed})
}

type relationRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (h *TaskHandler) AddAssignees(c *gin.Context) {
	h.mutateRelation(c, changes.RelationAssignees, model.ActionAdd, h.repo.AddAssignees)
}

func (h *TaskHandler) RemoveAssignees(c *gin.Context) {
	h.mutateRelation(c, changes.RelationAssignees, model.ActionRemove, h.repo.RemoveAssignees)
}

func (h *TaskHandler) AddTags(c *gin.Context) {
	h.mutateRelation(c, changes.RelationTags, model.ActionAdd, h.repo.AddTags)
}

func (h *TaskHandler) RemoveTags(c *gin.Context) {
	h.mutateRelation(c, changes.RelationTags, model.ActionRemove, h.repo.RemoveTags)
}

type relationMutator func(ctx context.Context, taskID int64, ids []int64) ([]int64, error)

func (h *TaskHandler) mutateRelation(c *gin.Context, relation, action string, mutate relationMutator) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req relationRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids required"})
		return
	}

	actorID := c.GetInt64("user_id")
	ctx := c.Request.Context()

	affected, err := mutate(ctx, taskID, req.IDs)
	if err != nil {
		h.logger.Error("mutateRelation: failed to apply relation change",
			zap.Int64("task_id", taskID),
			zap.String("relation", relation),
			zap.String("action", action),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update " + relation})
		return
	}

	if len(affected) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "affected": []int64{}})
		return
	}

	now := time.Now().UTC()
	if err := h.repo.TouchUpdated(ctx, taskID, actorID, now); err != nil {
		h.logger.Error("mutateRelation: failed to stamp task",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
	}

	if err := h.pipeline.OnRelationChanged(ctx, taskID, relation, action, affected, actorID); err != nil {
		h.logger.Error("mutateRelation: failed to enqueue activity",
			zap.Int64("task_id", taskID),
			zap.String("relation", relation),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "affected": affected})
}
