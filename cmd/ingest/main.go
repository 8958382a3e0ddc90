package main

import (
	"context"
	"flag"
	"log"

	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/unitofwork"
	"kb-assistant-be/internal/service"
	"kb-assistant-be/pkg/database"
	"kb-assistant-be/pkg/embedding"
	pktNats "kb-assistant-be/pkg/nats"
)

// Rebuilds tenant vector indexes from their CSV exports. With no flags
// every configured tenant is ingested; -tenant limits the run to one.
func main() {
	tenantFlag := flag.String("tenant", "", "ingest a single tenant instead of all configured ones")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewIsolatedLogger("logs/ingest.log")

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
	}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		// Ingestion still works; running servers just miss the live
		// refresh signal.
		log.Printf("Warn: Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	if natsPub != nil {
		defer natsPub.Close()
	}

	ingestService := service.NewIngestService(uowFactory, embeddingProvider, natsPub, cfg.Rag, sysLogger)

	ctx := context.Background()

	if *tenantFlag != "" {
		count, err := ingestService.IngestTenant(ctx, *tenantFlag)
		if err != nil {
			log.Fatalf("Ingest failed for tenant %s: %v", *tenantFlag, err)
		}
		log.Printf("✅ Ingested %d chunks for tenant %s", count, *tenantFlag)
		return
	}

	if err := ingestService.IngestAll(ctx); err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	log.Printf("✅ Ingested %d tenant(s)", len(cfg.Rag.Tenants))
}
