package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/twgrab/internal/config"
	"github.com/avolkov/twgrab/internal/database"
	"github.com/avolkov/twgrab/internal/database/repository"
	"github.com/avolkov/twgrab/internal/notify"
	"github.com/avolkov/twgrab/internal/server"
	"github.com/avolkov/twgrab/internal/storage"
	"github.com/avolkov/twgrab/internal/task"
)

func main() {
	cfg := config.Load()

	files, err := storage.NewLocal(cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	history := repository.NewDownloadRepository(db.DB)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("Failed to create Telegram notifier: %v", err)
		}
		notifier = tg
	}

	// Expired tasks take their files with them
	store := task.NewStore(cfg.TaskTTL, func(t task.Task) {
		if t.Filename == "" {
			return
		}
		if err := files.Remove(t.Filename); err != nil {
			log.Printf("Failed to remove expired file %s: %v", t.Filename, err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store.Start(ctx)
	files.StartCleanup(ctx, time.Minute, cfg.TaskTTL)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.New(cfg, store, files, history, notifier).Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // large file responses
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
