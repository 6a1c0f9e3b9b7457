// Command devapi serves an in-memory activities API for local development.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"activities-web/internal/apistub"
	"activities-web/internal/middleware"
	"activities-web/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("DEVAPI_PORT")
	if port == "" {
		port = "8000"
	}

	log, err := logger.New(os.Getenv("LOG_LEVEL"), "development")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	stub := apistub.New(apistub.DefaultCatalog())

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger(log.Named("devapi")))
	r.Use(chiMiddleware.Recoverer)
	r.Mount("/", stub.Handler())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Development activities API listening on port " + port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server error occurred")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown server")
	}
}
