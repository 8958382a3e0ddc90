package bootstrap

import (
	"context"
	"log"
	"time"

	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/controller"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/unitofwork"
	"kb-assistant-be/internal/service"
	"kb-assistant-be/pkg/embedding"
	"kb-assistant-be/pkg/events"
	"kb-assistant-be/pkg/llm/factory"
	"kb-assistant-be/pkg/rag"
	"kb-assistant-be/pkg/rag/history"
	"kb-assistant-be/pkg/rag/retriever"
	sess "kb-assistant-be/pkg/session"

	pktNats "kb-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	RetentionService service.IRetentionService

	// Retriever is exposed so main can fail fast before serving.
	Retriever *retriever.Retriever

	Config *config.Config
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		// Not fatal: the chat service degrades to session-less turns.
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	sessionStore := sess.NewRedisStore(rdb, 0)
	sessionManager := sess.NewManager(sessionStore)

	// 5. RAG Pipeline
	docRetriever := retriever.NewRetriever(uowFactory, embeddingProvider)
	historyLoader := history.NewLoader(uowFactory)
	engine := rag.NewEngine(llmProvider, docRetriever, historyLoader)

	// Refresh readiness when an ingestion run replaces a tenant index.
	if natsSub != nil {
		err := natsSub.Subscribe("events."+events.TypeIndexRebuilt, "kb-assistant-index-refresh", func(ctx context.Context, event events.Event) error {
			tenant, _ := event.Payload()["tenant_id"].(string)
			if tenant == "" {
				return nil
			}
			refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return docRetriever.Refresh(refreshCtx, tenant)
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to index rebuilt events: %v", err)
		}
	}

	// 6. Services
	publisherService := service.NewPublisherService(events.TypeSessionRotated, pubSub)
	retentionService := service.NewRetentionService(
		pubSub,
		events.TypeSessionRotated,
		uowFactory,
		cfg.Rag.HistoryRetention,
		sysLogger,
	)

	chatService := service.NewChatService(
		sessionManager,
		engine,
		publisherService,
		sysLogger,
	)

	// 7. Controllers
	return &Container{
		ChatController:   controller.NewChatController(chatService),
		RetentionService: retentionService,
		Retriever:        docRetriever,
		Config:           cfg,
	}
}
