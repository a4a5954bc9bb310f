package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskhive/internal/handler"
	"taskhive/pkg/metrics"
	"taskhive/pkg/mq"
	"taskhive/pkg/trace"
)

type Handlers struct {
	Activity     *handler.ActivityHandler
	Notification *handler.NotificationHandler
	Subscriber   *handler.SubscriberHandler
	Task         *handler.TaskHandler
}

func NewRouter(h Handlers, jwtSecret string, logger *zap.Logger, db *pgxpool.Pool, publisher *mq.Publisher) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName)
		if traceID == "" {
			traceID = trace.NewID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		metrics.RecordHTTPRequestDuration(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", traceID),
		)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", AuthRequired(jwtSecret, logger))
	{
		api.GET("/tasks/:id/logs", h.Activity.ListTaskLogs)
		api.GET("/workspaces/:id/activity", h.Activity.ListUserActivity)
		api.GET("/workspaces/:id/activity/recent", h.Activity.RecentUserActivity)

		api.GET("/notifications", h.Notification.ListNotifications)
		api.GET("/notifications/:id", h.Notification.GetNotification)
		api.POST("/workspaces/:id/notifications", h.Notification.Broadcast)

		api.GET("/tasks/:id/subscribers", h.Subscriber.ListSubscribers)
		api.POST("/tasks/:id/subscribers", h.Subscriber.Subscribe)
		api.DELETE("/tasks/:id/subscribers", h.Subscriber.Unsubscribe)

		api.PATCH("/tasks/:id", h.Task.UpdateTask)
		api.POST("/tasks/:id/assignees", h.Task.AddAssignees)
		api.DELETE("/tasks/:id/assignees", h.Task.RemoveAssignees)
		api.POST("/tasks/:id/tags", h.Task.AddTags)
		api.DELETE("/tasks/:id/tags", h.Task.RemoveTags)
	}

	return r
}
