// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recycle-pickup-api-server/config"
	"recycle-pickup-api-server/internal/api/routes"
	"recycle-pickup-api-server/internal/auth"
	"recycle-pickup-api-server/internal/database"
	"recycle-pickup-api-server/internal/pickup"
	"recycle-pickup-api-server/internal/services"
	"recycle-pickup-api-server/internal/session"
	"recycle-pickup-api-server/internal/socket"
	"recycle-pickup-api-server/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	// 2. Connect to MongoDB
	client, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Failed to disconnect from MongoDB: %v", err)
		}
	}()
	db := client.Database(cfg.Mongo.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Could not create indexes: %v", err)
	}

	users := database.NewUserRepository(db)
	if err := database.SeedAdmin(ctx, users, cfg.Admin); err != nil {
		log.Fatalf("Could not seed admin account: %v", err)
	}

	// 3. Photo storage
	uploader, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Could not initialize %s storage: %v", cfg.Storage.Provider, err)
	}
	if closer, ok := uploader.(io.Closer); ok {
		defer closer.Close()
	}

	// 4. Services
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		log.Fatalf("Could not initialize tokens: %v", err)
	}
	hub := socket.NewHub()
	pickups := services.NewPickupService(database.NewPickupRepository(db), &socket.Notifier{Hub: hub})
	profiles := services.NewProfileService(users, database.NewLocationRepository(db), tokens)

	sessions := session.NewManager(cfg.Wizard, uploader, &pickup.BackendSubmitter{Backend: pickups})
	go sessions.Run(ctx)

	// 5. Router
	router := routes.SetupRouter(routes.Deps{
		Config:   cfg,
		Tokens:   tokens,
		Profiles: profiles,
		Pickups:  pickups,
		Sessions: sessions,
		Uploader: uploader,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Start server
	go func() {
		log.Printf("Starting API server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	sessions.Close()
}
