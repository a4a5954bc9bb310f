package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/model"
	"taskhive/internal/repository"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, routingKey string, payload any) error
}

type NotificationHandler struct {
	repo       *repository.NotificationRepository
	workspaces *repository.WorkspaceRepository
	queue      Enqueuer
	logger     *zap.Logger
}

func NewNotificationHandler(repo *repository.NotificationRepository, workspaces *repository.WorkspaceRepository, queue Enqueuer, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:       repo,
		workspaces: workspaces,
		queue:      queue,
		logger:     logger,
	}
}

// ListNotifications returns the authenticated user's notifications, newest
// first, with optional workspace, severity, read-state and text filters.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.GetInt64("user_id")

	f := repository.NotificationFilter{
		Search: c.Query("search"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if raw := c.Query("workspace_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace_id"})
			return
		}
		f.WorkspaceID = &id
	}
	if raw := c.Query("severity"); raw != "" {
		sev, err := strconv.Atoi(raw)
		if err != nil || sev < model.SeverityInformative || sev > model.SeverityCritical {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
			return
		}
		f.Severity = &sev
	}
	if raw := c.Query("is_read"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid is_read"})
			return
		}
		f.IsRead = &isRead
	}

	notifications, err := h.repo.ListByRecipient(c.Request.Context(), userID, f)
	if err != nil {
		h.logger.Error("ListNotifications: failed to fetch notifications",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetNotification returns one of the user's notifications and marks it read.
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	n, err := h.repo.Get(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.logger.Error("GetNotification: failed to fetch notification",
			zap.Int64("notification_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notification"})
		return
	}

	if !n.IsRead {
		if err := h.repo.MarkRead(c.Request.Context(), n.ID); err != nil {
			h.logger.Error("GetNotification: failed to mark notification read",
				zap.Int64("notification_id", n.ID),
				zap.Error(err),
			)
		} else {
			n.IsRead = true
		}
	}

	c.JSON(http.StatusOK, n)
}

type broadcastRequest struct {
	Message  string `json:"message" binding:"required"`
	Severity int    `json:"severity"`
}

// Broadcast enqueues a notification to every member of a workspace. Admins
// only.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	userID := c.GetInt64("user_id")
	workspaceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return
	}

	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	if req.Severity == 0 {
		req.Severity = model.SeverityAttention
	}
	if req.Severity < model.SeverityInformative || req.Severity > model.SeverityCritical {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
		return
	}

	isAdmin, err := h.workspaces.IsAdmin(c.Request.Context(), workspaceID, userID)
	if err != nil {
		h.logger.Error("Broadcast: failed to check admin role",
			zap.Int64("workspace_id", workspaceID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check permissions"})
		return
	}
	if !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "workspace admin required"})
		return
	}

	members, err := h.workspaces.ListMemberIDs(c.Request.Context(), workspaceID)
	if err != nil {
		h.logger.Error("Broadcast: failed to list members",
			zap.Int64("workspace_id", workspaceID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	payload := mqcontracts.NotificationDispatchPayload{
		Recipients:  members,
		WorkspaceID: workspaceID,
		Severity:    req.Severity,
		TriggeredBy: &userID,
		Message:     req.Message,
	}
	if err := h.queue.Enqueue(c.Request.Context(), mqcontracts.RouteDispatch, payload); err != nil {
		h.logger.Error("Broadcast: failed to enqueue dispatch",
			zap.Int64("workspace_id", workspaceID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue broadcast"})
		return
	}

	h.logger.Info("Broadcast enqueued",
		zap.Int64("workspace_id", workspaceID),
		zap.Int64("user_id", userID),
		zap.Int("recipients", len(members)),
	)
	c.JSON(http.StatusCreated, gin.H{"status": "queued", "recipients": len(members)})
}
