// Command backend runs a development backend that speaks the widget's wire
// contract: the public WebSocket, handoff, customization and operator push.
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

	"github.com/xiaot623/gogo/widget/internal/config"
	"github.com/xiaot623/gogo/widget/internal/hub"
	internalhttp "github.com/xiaot623/gogo/widget/internal/http"
	"github.com/xiaot623/gogo/widget/internal/policy"
	"github.com/xiaot623/gogo/widget/internal/repository"
	"github.com/xiaot623/gogo/widget/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting widget backend...")
	log.Printf("Port: %d", cfg.BackendPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Log level: %s", cfg.LogLevel)

	store, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	policyContent := policy.DefaultPolicy
	if cfg.PolicyFile != "" {
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			log.Fatalf("Failed to read policy file: %v", err)
		}
		policyContent = string(data)
		log.Printf("Policy: %s", cfg.PolicyFile)
	}
	engine, err := policy.NewEngine(context.Background(), policyContent)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	connectionHub := hub.NewHub()
	connectionHub.Debug = cfg.Debug()
	go connectionHub.Run()

	wsServer := ws.NewServer(cfg, connectionHub, store, engine)
	httpServer := internalhttp.NewServer(connectionHub, store, wsServer)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.BackendPort)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	log.Printf("Widget backend started on port %d", cfg.BackendPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down widget backend...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}
	connectionHub.Stop()

	log.Println("Widget backend stopped")
}
