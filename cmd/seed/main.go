package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"clouddrive/internal/config"
	"clouddrive/internal/database"
	"clouddrive/internal/domain/auth"
	"clouddrive/internal/domain/files"
	"clouddrive/internal/domain/uploads"
	jwtsvc "clouddrive/internal/pkg/jwt"
)

// Seeds the metadata store: migrates the schema and creates the default
// account when no user exists yet. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&auth.User{},
		&files.FileRecord{},
		&uploads.Session{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	service := auth.NewService(auth.NewRepository(db), jwtsvc.New(cfg.JWTSecret, 24*time.Hour))
	if err := service.SeedDefaultAdmin(context.Background(),
		config.DefaultAdminUsername, config.DefaultAdminPassword, config.DefaultAdminEmail); err != nil {
		log.Fatal(err)
	}

	log.Println("Seed completed!")
	log.Printf("Default account: %s / %s", config.DefaultAdminUsername, config.DefaultAdminPassword)
}
