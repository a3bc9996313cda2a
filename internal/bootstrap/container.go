package bootstrap

import (
	"context"
	"log"
	"time"

	"document-qa-be/internal/config"
	"document-qa-be/internal/controller"
	"document-qa-be/internal/handler"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/contract"
	"document-qa-be/internal/repository/implementation"
	"document-qa-be/internal/service"
	"document-qa-be/internal/websocket"
	"document-qa-be/pkg/answering"
	"document-qa-be/pkg/clock"
	"document-qa-be/pkg/upload"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const eventTopicName = "DOMAIN_EVENTS"

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	QAController       controller.IQAController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	clk := clock.New()

	// 2. Durable storage
	var kv contract.IKVRepository
	if cfg.Storage.Driver == "redis" {
		opt, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Storage.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		kv = implementation.NewRedisKVRepository(rdb)
		log.Printf("[INFO] Using storage driver: REDIS")
	} else {
		kv = implementation.NewFileKVRepository(cfg.Storage.DataDir)
		log.Printf("[INFO] Using storage driver: FILE (%s)", cfg.Storage.DataDir)
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 4. Answering provider
	provider, err := answering.NewProvider(
		cfg.Answering.Provider,
		cfg.Answering.GeminiAPIKey,
		cfg.Answering.RemoteAskURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize answering provider: %v", err)
	}
	log.Printf("[INFO] Using answering provider: %s", cfg.Answering.Provider)
	gateway := answering.NewGateway(provider)

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 6. Services
	notificationService := service.NewNotificationService(
		clk,
		time.Duration(cfg.Upload.ToastTTLMillis)*time.Millisecond,
		sysLogger,
	)
	publisherService := service.NewPublisherService(eventTopicName, pubSub)
	consumerService := service.NewConsumerService(pubSub, eventTopicName, wsHub, sysLogger)

	simulator := upload.NewSimulator(
		clk,
		time.Duration(cfg.Upload.TickMillis)*time.Millisecond,
		cfg.Upload.FailureRate,
	)

	documentService := service.NewDocumentService(
		kv,
		gateway,
		simulator,
		notificationService,
		publisherService,
		clk,
		sysLogger,
		cfg.Upload.MaxFileSize,
		cfg.Upload.MaxContentLen,
	)

	// 7. Controllers
	return &Container{
		DocumentController:  controller.NewDocumentController(documentService),
		QAController:        controller.NewQAController(documentService),
		ConsumerService:     consumerService,
		NotificationHandler: handler.NewNotificationHandler(notificationService, wsHub, sysLogger),
		WebSocketHub:        wsHub,
		Logger:              sysLogger,
	}
}
