package bootstrap

import (
	"context"
	"log"

	"notesync-be/internal/config"
	"notesync-be/internal/controller"
	"notesync-be/internal/handler"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/serverutils"
	"notesync-be/internal/repository/memory"
	"notesync-be/internal/repository/unitofwork"
	"notesync-be/internal/service"
	"notesync-be/internal/store"
	"notesync-be/internal/websocket"

	pktNats "notesync-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	NoteController  controller.INoteController
	TrashController controller.ITrashController
	TreeController  controller.ITreeController

	// Services
	NoteService  service.INoteService
	TrashService service.ITrashService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	EventHandler *handler.EventHandler
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
}

// Options overrides pieces of the container, mostly for tests.
type Options struct {
	Logger logger.ILogger
	NewId  service.IdGenerator
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	return NewContainerWithOptions(db, cfg, Options{})
}

func NewContainerWithOptions(db *gorm.DB, cfg *config.Config, opts Options) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := opts.Logger
	if sysLogger == nil {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}

	// 2. Storage
	objectStore := store.NewPostgresStore(uowFactory, sysLogger, cfg.Database.StorePrefix)
	treeCache := memory.NewTreeCacheRepository(cfg.Database.TreeCacheTTL)
	treeStore := store.NewTreeStore(objectStore, treeCache, sysLogger)

	// 3. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)

	// 4. Infrastructure: NATS and Redis are optional
	var natsPub *pktNats.Publisher
	if cfg.Events.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	var rdb *redis.Client
	if cfg.Events.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Events.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.Events.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	var wsLogger logger.ILogger = sysLogger
	if opts.Logger == nil {
		wsLogger = logger.NewIsolatedLogger(cfg.Events.WsLogFilePath)
	}
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)

	// A nil *Publisher must not reach the interface.
	var forwarder service.EventForwarder
	if natsPub != nil {
		forwarder = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, cfg.Events.Topic, forwarder, wsHub, sysLogger)

	noteService := service.NewNoteService(objectStore, treeStore, publisherService, sysLogger, opts.NewId)
	trashService := service.NewTrashService(noteService)

	// 6. Controllers
	auth := fiber.Handler(serverutils.PassthroughMiddleware)
	if cfg.Auth.Enabled {
		auth = serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret)
	}

	return &Container{
		NoteController:  controller.NewNoteController(noteService, auth),
		TrashController: controller.NewTrashController(trashService, auth),
		TreeController:  controller.NewTreeController(noteService, auth),

		NoteService:  noteService,
		TrashService: trashService,

		ConsumerService: consumerService,

		EventHandler: handler.NewEventHandler(wsHub, sysLogger, cfg.Auth.Enabled, cfg.Auth.JWTSecret),
		WebSocketHub: wsHub,

		Logger: sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		rdb:     rdb,
	}
}

// Start runs the websocket hub and the event consumer until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	return c.ConsumerService.Consume(ctx)
}

func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil {
			log.Printf("[WARN] Failed to close Redis: %v", err)
		}
	}
}
