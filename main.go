package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"webchat/config"
	"webchat/directory"
	"webchat/logger"
	"webchat/models"
	"webchat/routes"
	"webchat/services"
	"webchat/store"
)

func main() {
	cfg := config.Load()
	config.InitDB()
	models.Migrate()

	// Mongo is optional: without it the chat still works, messages just do
	// not survive a reload.
	mongoDB, err := config.InitMongo()
	if err != nil {
		logger.Warnf("MongoDB unavailable, message persistence disabled: %v", err)
	}
	defer config.CloseMongo()

	messageStore := store.New(mongoDB)
	userDirectory := directory.New(config.DB)
	hub := services.NewHub(userDirectory, messageStore)

	go cleanupLoop(cfg)

	r := routes.RegisterRoutes(hub, messageStore, userDirectory)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Infof("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// cleanupLoop deletes chat uploads older than the retention window, once at
// startup and then every 24h.
func cleanupLoop(cfg *config.Config) {
	cleanupOldUploads(cfg)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		cleanupOldUploads(cfg)
	}
}

func cleanupOldUploads(cfg *config.Config) {
	dir := filepath.Join(cfg.UploadDir, "messages")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Errorf("read upload dir: %v", err)
		}
		return
	}

	deleted := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if time.Since(info.ModTime()) > cfg.UploadMaxAge {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				logger.Errorf("remove expired upload %s: %v", entry.Name(), err)
				continue
			}
			deleted++
		}
	}
	if deleted > 0 {
		logger.Infof("removed %d expired uploads", deleted)
	}
}
