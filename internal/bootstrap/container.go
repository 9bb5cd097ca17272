package bootstrap

import (
	"context"
	"log"

	"careconnect/internal/config"
	"careconnect/internal/controller"
	"careconnect/internal/handler"
	"careconnect/internal/pkg/logger"
	"careconnect/internal/repository/contract"
	"careconnect/internal/repository/memory"
	"careconnect/internal/repository/redisrepo"
	"careconnect/internal/service"
	"careconnect/internal/websocket"
	"careconnect/pkg/ingest"
	"careconnect/pkg/llm/cortex"
	"careconnect/pkg/rag/completion"
	"careconnect/pkg/rag/retrieval"
	"careconnect/pkg/warehouse"

	pktNats "careconnect/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	CatalogController controller.ICatalogController
	SessionController controller.ISessionController
	ChatController    controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	AuditService    service.IAuditService // nil without NATS

	// WebSockets
	ChatSocketHandler *handler.ChatSocketHandler
	WebSocketHub      *websocket.Hub

	Connection *warehouse.Connection
	Logger     logger.ILogger

	pubSub  *gochannel.GoChannel
	rdb     *redis.Client
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	watcher *config.CatalogWatcher
}

// NewContainer connects to the warehouse and wires every component. A
// *warehouse.ConnectionError is returned as is so main can report it.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	conn := warehouse.NewConnection(warehouse.Params{
		Account:      cfg.Warehouse.Account,
		User:         cfg.Warehouse.User,
		Password:     cfg.Warehouse.Password,
		Warehouse:    cfg.Warehouse.Warehouse,
		Database:     cfg.Warehouse.Database,
		Schema:       cfg.Warehouse.Schema,
		Role:         cfg.Warehouse.Role,
		LoginTimeout: cfg.Warehouse.LoginTimeout,
	})
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	root, err := conn.Root(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Connected to warehouse account %s", cfg.Warehouse.Account)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Retrieval and completion
	searchService, err := root.Service(cfg.Search.Database, cfg.Search.Schema, cfg.Search.Service)
	if err != nil {
		conn.Close()
		return nil, err
	}
	retriever := retrieval.NewClient(searchService, cfg.Search.Limit, sysLogger)
	llmProvider := cortex.NewProvider(root.Querier(), cfg.Catalog.DefaultModel)
	urls := completion.NewStageResolver(root.Querier(), cfg.Search.Stage, cfg.Search.URLTTL)
	orchestrator := completion.NewOrchestrator(retriever, llmProvider, urls, sysLogger)
	log.Printf("[INFO] Using Cortex Search service: %s", searchService.QualifiedName())

	// 4. Document ingestion
	ingestOpts := []ingest.Option{
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingest.WithTempDir(cfg.Ingest.TempDir),
	}
	if cfg.Ingest.TikaURL != "" {
		ingestOpts = append(ingestOpts, ingest.WithTika(cfg.Ingest.TikaURL))
		log.Printf("[INFO] Using Tika for document extraction (%s)", cfg.Ingest.TikaURL)
	}
	ingester := ingest.NewAdapter(sysLogger, ingestOpts...)

	// 5. Infrastructure
	// Redis
	var rdb *redis.Client
	var sessionRepo contract.SessionRepository
	if cfg.App.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionRepo = redisrepo.NewSessionRepository(rdb, cfg.App.SessionTTL)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionRepo = memory.NewSessionRepository(cfg.App.SessionTTL)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	// NATS
	var mirror service.EventMirror
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	var auditService service.IAuditService
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			mirror = natsPub
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			auditLogger := logger.NewIsolatedLogger("logs/audit.log")
			auditService = service.NewAuditService(natsSub, auditLogger)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(context.Background())

	// 6. Services
	locks := service.NewSessionLocks()
	publisherService := service.NewPublisherService(cfg.App.TurnTopic, pubSub, mirror, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.App.TurnTopic, wsHub, wsLogger)

	catalogService := service.NewCatalogService(root.Querier(), cfg.Catalog, cfg.Search, sysLogger)
	sessionService := service.NewSessionService(sessionRepo, catalogService, ingester, locks, sysLogger)
	chatService := service.NewChatService(sessionRepo, orchestrator, publisherService, locks, sysLogger)

	var watcher *config.CatalogWatcher
	if cfg.App.CatalogFile != "" {
		watcher, err = config.NewCatalogWatcher(cfg.App.CatalogFile)
		if err == nil {
			err = watcher.Watch(context.Background(), catalogService.Reload, func(err error) {
				sysLogger.Warn("CATALOG", "Catalog file rejected", map[string]interface{}{"error": err.Error()})
			})
		}
		if err != nil {
			log.Printf("[WARN] Catalog file will not be reloaded: %v", err)
		}
	}

	// 7. Controllers
	return &Container{
		CatalogController: controller.NewCatalogController(catalogService),
		SessionController: controller.NewSessionController(sessionService),
		ChatController:    controller.NewChatController(chatService),

		ConsumerService: consumerService,
		AuditService:    auditService,

		ChatSocketHandler: handler.NewChatSocketHandler(sessionService, chatService, wsHub, wsLogger),
		WebSocketHub:      wsHub,

		Connection: conn,
		Logger:     sysLogger,

		pubSub:  pubSub,
		rdb:     rdb,
		natsPub: natsPub,
		natsSub: natsSub,
		watcher: watcher,
	}, nil
}

// Close releases the warehouse handle and every broker connection.
func (c *Container) Close() error {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}
	c.pubSub.Close()
	c.Logger.Sync()
	return c.Connection.Close()
}
