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

	"fgm.clinic/chat-assistant/internal/api"
	"fgm.clinic/chat-assistant/internal/config"
	"fgm.clinic/chat-assistant/internal/core"
	"fgm.clinic/chat-assistant/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize record store. Without DATABASE_URL everything lives in
	// process memory and is lost on restart.
	var dbStore store.Store
	if config.AppConfig.DatabaseURL != "" {
		sqliteStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		dbStore = sqliteStore
		log.Printf("Using SQLite store at %s", config.AppConfig.DatabaseURL)
	} else {
		dbStore = store.NewMemoryStore()
		log.Println("DATABASE_URL not set, using in-memory store")
	}
	defer dbStore.Close()

	// Initialize services
	llmService := core.NewLLMService(config.AppConfig.OpenAIAPIKey, config.AppConfig.ChatModel)
	contextService := core.NewContextService(config.AppConfig.SearchURL, config.AppConfig.SearchAPIKey)
	chatService := core.NewChatService(dbStore, contextService, llmService)
	leadService := core.NewLeadService(dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, leadService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: streamed replies have no bounded duration.
		// The LLM service bounds the pre-stream dispatch phase with its
		// own retry limit.
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
