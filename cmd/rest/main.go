package main

import (
	"context"
	"log"

	"kb-assistant-be/internal/bootstrap"
	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/server"
	"kb-assistant-be/internal/tracer"
	"kb-assistant-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Verify tenant knowledge bases. A tenant without an ingested
	// index cannot answer anything, so refuse to start.
	if err := container.Retriever.Load(context.Background(), cfg.Rag.Tenants); err != nil {
		log.Fatalf("Knowledge base verification failed: %v", err)
	}
	log.Printf("Verified knowledge bases for %d tenant(s)", len(cfg.Rag.Tenants))

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Retention Service...")
		if err := container.RetentionService.Consume(context.Background()); err != nil {
			log.Printf("Background Retention Error: %v", err)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
