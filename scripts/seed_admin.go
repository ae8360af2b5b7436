// Bootstraps the first instructor account.
//
// Admin accounts are normally created by another admin through the API;
// this script exists for a fresh deployment where no admin exists yet. It
// prints the generated access ID once; it is not recoverable afterwards.
//
// Usage: go run scripts/seed_admin.go -name "Course Instructor"

package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"cybersafe_backend/internal/config"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/service"
	"cybersafe_backend/pkg/database"
	"cybersafe_backend/pkg/logger"
)

func main() {
	name := flag.String("name", "Instructor", "display name for the admin account")
	email := flag.String("email", "", "optional contact email")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(users, cfg.JWT.Secret, 72*time.Hour)

	user, accessID, err := auth.Register(*name, *email, true)
	if err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	fmt.Printf("Admin account created (id %d)\n", user.ID)
	fmt.Printf("Access ID (shown once, store it safely): %s\n", accessID)
}
