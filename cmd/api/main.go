package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clouddrive/internal/config"
	"clouddrive/internal/database"
	"clouddrive/internal/domain/auth"
	"clouddrive/internal/domain/events"
	"clouddrive/internal/domain/files"
	"clouddrive/internal/domain/storage"
	"clouddrive/internal/domain/uploads"
	"clouddrive/internal/middleware"
	jwtsvc "clouddrive/internal/pkg/jwt"
)

func main() {
	// .env is optional; real deployments set the environment directly.
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
		log.Fatal(err)
	}
	if err := db.AutoMigrate(
		&auth.User{},
		&files.FileRecord{},
		&uploads.Session{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.TokenTTL)

	authService := auth.NewService(auth.NewRepository(db), j)
	authHandler := auth.NewHandler(authService)

	hub := events.NewHub()
	wsHandler := events.NewWSHandler(hub, j)

	filesRepo := files.NewRepository(db)
	filesService := files.NewService(filesRepo, cfg.FilesDir(), cfg.ThumbnailsDir())
	filesHandler := files.NewHandler(filesService, hub)

	uploadsService := uploads.NewService(uploads.NewRepository(db), filesService, cfg.ChunksDir(), config.ChunkSize)
	uploadsHandler := uploads.NewHandler(uploadsService, hub)

	storageHandler := storage.NewHandler(filesRepo, cfg)

	// A fresh install gets the default account so it is usable immediately.
	if err := authService.SeedDefaultAdmin(context.Background(),
		config.DefaultAdminUsername, config.DefaultAdminPassword, config.DefaultAdminEmail); err != nil {
		log.Fatal(err)
	}

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	r.GET("/ws/events", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	{
		// public
		auth.RegisterRoutes(api, authHandler)
		files.RegisterPublicRoutes(api, filesHandler)

		// protected
		protected := api.Group("/")
		protected.Use(middleware.Auth(j))
		{
			files.RegisterRoutes(protected, filesHandler)
			uploads.RegisterRoutes(protected, uploadsHandler)
			storage.RegisterRoutes(protected, storageHandler)
		}
	}

	log.Printf("CloudDrive listening on :%s (login: %s / %s)",
		cfg.Port, config.DefaultAdminUsername, config.DefaultAdminPassword)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
