package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matt0223/house-cup-sub001/internal/database"
	"github.com/matt0223/house-cup-sub001/internal/logging"
	"github.com/matt0223/house-cup-sub001/internal/narrative"
	"github.com/matt0223/house-cup-sub001/internal/server"
)

func main() {
	port := os.Getenv("HOUSECUP_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HOUSECUP_DB_PATH")
	if dbPath == "" {
		dbPath = "housecup.db"
	}

	logger := logging.Setup(os.Getenv("HOUSECUP_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	narrativeCfg := narrative.Config{
		URL:    os.Getenv("HOUSECUP_LLM_URL"),
		APIKey: os.Getenv("HOUSECUP_LLM_KEY"),
		Model:  os.Getenv("HOUSECUP_LLM_MODEL"),
	}

	srv := server.New(db, narrativeCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	// Prune stale rate limit entries
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("House Cup running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
