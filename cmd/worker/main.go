package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/config"
	"taskhive/internal/mqhandler"
	"taskhive/internal/repository"
	"taskhive/internal/service/activitylog"
	"taskhive/internal/service/notify"
	"taskhive/internal/service/retention"
	"taskhive/pkg/db"
	"taskhive/pkg/logger"
	"taskhive/pkg/mq"
	"taskhive/pkg/redis"
	"taskhive/pkg/util"
)

const dedupTTL = 24 * time.Hour

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting taskhive worker...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	activityLogRepo := repository.NewActivityLogRepository(dbConn, log)
	notificationRepo := repository.NewNotificationRepository(dbConn, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)
	tagRepo := repository.NewTagRepository(dbConn, log)

	logCreator := activitylog.NewCreator(taskRepo, userRepo, tagRepo, activityLogRepo, log)
	notifyCreator := notify.NewCreator(notificationRepo, userRepo, taskRepo, log)
	deduper := util.NewDeduper(rdb, dedupTTL, log)

	activityLogHandler := mqhandler.NewActivityLogHandler(logCreator, deduper, publisher, log)
	notifyHandler := mqhandler.NewNotifyHandler(notifyCreator, log)
	dispatchHandler := mqhandler.NewDispatchHandler(notifyCreator, log)

	consumers := []struct {
		routingKey string
		handler    mq.MessageHandler
	}{
		{mqcontracts.RouteActivityLog, activityLogHandler.Handle},
		{mqcontracts.RouteActivityNotify, notifyHandler.Handle},
		{mqcontracts.RouteDispatch, dispatchHandler.Handle},
	}

	started := make([]*mq.Consumer, 0, len(consumers))
	for _, c := range consumers {
		queueName := c.routingKey + ".q"
		log.Info("Initializing MQ consumer...",
			zap.String("queue", queueName),
			zap.String("routing_key", c.routingKey),
		)
		consumer, err := mq.NewConsumer(cfg.MQ.URL, queueName, c.routingKey, log)
		if err != nil {
			log.Fatal("Failed to init consumer",
				zap.String("routing_key", c.routingKey),
				zap.Error(err),
			)
		}
		defer consumer.Close()

		consumer.SetHandler(c.handler)
		started = append(started, consumer)

		go func(consumer *mq.Consumer, key string) {
			log.Info("Starting consumer...", zap.String("routing_key", key))
			if err := consumer.StartConsuming(); err != nil {
				log.Fatal("Consumer failed",
					zap.String("routing_key", key),
					zap.Error(err),
				)
			}
		}(consumer, c.routingKey)
	}

	// Daily retention sweep for old notifications.
	sweeper := retention.NewSweeper(notificationRepo, cfg.Retention.NotificationDays, log)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			if err := sweeper.SweepNotifications(sweepCtx); err != nil {
				log.Error("Notification sweep failed", zap.Error(err))
			}
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	log.Info("taskhive worker is fully initialized and running",
		zap.Int("consumers", len(started)),
		zap.Int("retention_days", cfg.Retention.NotificationDays),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down taskhive worker gracefully...")

	stopSweep()
	for _, consumer := range started {
		consumer.Stop()
	}

	log.Info("taskhive worker shutdown complete")
}
