package main

import (
	"flag"
	"log"

	"cybersafe_backend/internal/app"
	"cybersafe_backend/internal/config"
	"cybersafe_backend/pkg/configwatcher"
	"cybersafe_backend/pkg/logger"
)

func main() {
	// Migrations run on every startup; -migrate-only stops after them.
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Database migration completed, exiting")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", func(next *config.Config) {
		logger.Log.Info("configuration reloaded")
		application.ReprobeStorage()
	})

	application.Run()
}
