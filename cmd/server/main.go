package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskhive/internal/config"
	"taskhive/internal/handler"
	"taskhive/internal/httpserver"
	"taskhive/internal/repository"
	"taskhive/internal/service/pipeline"
	"taskhive/internal/service/subscription"
	"taskhive/pkg/db"
	"taskhive/pkg/logger"
	"taskhive/pkg/mq"
	"taskhive/pkg/outbox"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting taskhive server...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("port", cfg.Server.Port),
	)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Outbox: request handlers insert events in Postgres, the dispatcher
	// goroutine moves them onto MQ.
	outboxRepo := outbox.NewRepository(dbConn)
	queue := outbox.NewQueue(outboxRepo, "task")
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go dispatcher.Start(dispatchCtx)

	activityLogRepo := repository.NewActivityLogRepository(dbConn, log)
	notificationRepo := repository.NewNotificationRepository(dbConn, log)
	subscriberRepo := repository.NewSubscriberRepository(dbConn, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)
	workspaceRepo := repository.NewWorkspaceRepository(dbConn, log)

	subscriptions := subscription.NewService(subscriberRepo, workspaceRepo, userRepo, log)
	pipe := pipeline.New(subscriptions, taskRepo, queue, log)

	handlers := httpserver.Handlers{
		Activity:     handler.NewActivityHandler(activityLogRepo, log),
		Notification: handler.NewNotificationHandler(notificationRepo, workspaceRepo, queue, log),
		Subscriber:   handler.NewSubscriberHandler(taskRepo, subscriptions, pipe, log),
		Task:         handler.NewTaskHandler(taskRepo, pipe, log),
	}

	router := httpserver.NewRouter(handlers, cfg.JWT.Secret, log, dbConn, publisher)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("taskhive server is fully initialized and running",
		zap.String("http_port", cfg.Server.Port),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down taskhive server gracefully...")

	stopDispatch()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("taskhive server shutdown complete")
}
