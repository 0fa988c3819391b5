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

	"github.com/opsmind/backend/internal/api"
	"github.com/opsmind/backend/internal/config"
	"github.com/opsmind/backend/internal/core"
	"github.com/opsmind/backend/internal/ocr"
	"github.com/opsmind/backend/internal/store"
	"github.com/opsmind/backend/internal/vapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	ocrClient := ocr.NewClient(cfg.OCRServiceURL, cfg.OCRAPIKey, cfg.OCRRecognizer, cfg.OCRTimeout)
	vapiClient := vapi.NewClient(cfg.VapiBaseURL, cfg.VapiAPIToken, cfg.VapiTimeout)

	agentService := core.NewAgentService(ocrClient, vapiClient, vapiClient, dbStore)
	registry := core.NewRegistry(vapiClient, dbStore, dbStore)

	apiHandler := api.NewAPIHandler(agentService, registry, dbStore, cfg.JWTSecret, cfg.DefaultPhoneID)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  60 * time.Second, // Multipart uploads can be large
		WriteTimeout: 120 * time.Second, // OCR + upload + provisioning in one request
		IdleTimeout:  120 * time.Second,
	}

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

	// Give active provisioning requests time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
