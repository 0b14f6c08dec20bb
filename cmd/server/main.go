package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jojospausch-web/redact-clinical-german/internal/config"
	"github.com/jojospausch-web/redact-clinical-german/internal/handler"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	// Router
	router, anonymizeHandler := handler.NewRouter(container)

	// Template hot reload: edits to the template file take effect for the
	// next request without a restart.
	stopWatch, err := template.Watch(container.Config.GetTemplatePath(), container.Logger, anonymizeHandler.SetTemplate)
	if err != nil {
		container.Logger.Warn("Template watch disabled", "error", err)
	} else {
		defer stopWatch()
	}

	// start server
	server := &http.Server{
		Addr:    ":" + container.Config.GetServerPort(),
		Handler: router,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)

	container.Logger.Info("Server exited")
}
