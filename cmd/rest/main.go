package main

import (
	"context"
	"log"

	"prompt-polish-be/internal/bootstrap"
	"prompt-polish-be/internal/config"
	"prompt-polish-be/internal/server"
	"prompt-polish-be/internal/tracer"
	"prompt-polish-be/pkg/database"
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

	// 4. Start Background Services
	if err := container.RefreshWorker.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start synopsis refresh worker: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
