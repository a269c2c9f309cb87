// @title           Portfolio Backend API
// @version         1.0.0
// @description     Backend API for the construction portfolio site. Manages projects and their images, stored either in a JSON file with image folders on disk or in a database.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Only required when ADMIN_JWT_SECRET is set.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/store/filestore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}()

	// The legacy project file and image folders feed the seeder and scanner
	// in every mode.
	legacyProjects, err := filestore.NewProjects(cfg.ProjectsFile)
	if err != nil {
		log.Fatalf("Failed to open projects file: %v", err)
	}
	disk, err := filestore.NewImages(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("Failed to open images directory: %v", err)
	}

	if _, err := services.NewSeeder(backend, legacyProjects, disk).Seed(ctx); err != nil {
		log.Printf("Warning: seeding failed: %v", err)
	}

	policy := store.UploadPolicy{MaxSize: cfg.MaxUploadBytes()}
	portfolio := services.NewPortfolioService(backend, policy)
	scanner := services.NewScanner(backend, disk, cfg.ScanExclude)

	router := handlers.NewRouter(cfg, portfolio, scanner)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s (%s storage, driver %s)", cfg.Port, backend.Mode, backend.Driver)
		log.Printf("Projects file: %s", cfg.ProjectsFile)
		log.Printf("Images folder: %s", cfg.ImagesDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
}
