package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/artazzen/gallerybackend/config"
	"github.com/artazzen/gallerybackend/enrichment"
	"github.com/artazzen/gallerybackend/gallery"
	"github.com/artazzen/gallerybackend/handlers"
	"github.com/artazzen/gallerybackend/lockfile"
	"github.com/artazzen/gallerybackend/media"
	"github.com/artazzen/gallerybackend/recon"
	"github.com/artazzen/gallerybackend/sidecar"
	"github.com/artazzen/gallerybackend/workers"
)

const imagesRoutePrefix = "/static/images/"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.ImagesPath, filepath.Join(cfg.StaticPath, "css"), cfg.DataPath, cfg.LocksPath}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	settings := config.LoadSettings(cfg.AISettingsPath, cfg.AdvancedSettingsPath)

	schema, err := sidecar.LoadSchema()
	if err != nil {
		log.Fatalf("FATAL: Failed to load sidecar schema: %v", err)
	}
	store := sidecar.NewStore(cfg.ImagesPath, schema)
	scanner := gallery.NewScanner(cfg.ImagesPath, store)

	mediaStore, err := media.NewLocalStorage(cfg.ImagesPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	credentials := enrichment.NewCredentialSource(filepath.Join(cfg.DataPath, "openai_api_key"))
	client := enrichment.NewClient(os.Getenv("OPENAI_BASE_URL"), credentials)

	adv := settings.Advanced()
	slots := lockfile.NewSlotLimiter(cfg.LocksPath, adv.SidecarSlots)
	orch := recon.NewOrchestrator(scanner, store, client, settings, slots, imagesRoutePrefix)

	log.Printf("Initializing enrichment worker pool (Workers: %d, Queue Size: %d)...", cfg.NumEnrichmentWorkers, cfg.EnrichmentQueueSize)
	pool := workers.NewEnrichmentPool(orch, cfg.EnrichmentQueueSize, cfg.NumEnrichmentWorkers)
	orch.SetPool(pool)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// startup election: one process per host migrates and runs the initial
	// enrichment pass, everyone else reconciles without enrichment
	migrationLock := lockfile.MigrationLock(cfg.LocksPath)
	if migrationLock.TryAcquire() {
		log.Printf("Won migration lock; running schema migration and startup reconciliation")
		orch.MigrateAll()
		orch.Scan(ctx, recon.ScanOptions{
			CreateSidecars: adv.StartupSidecarCreation,
			Enrich:         adv.StartupEnrichment,
		})
		migrationLock.Release()
	} else {
		log.Printf("Migration lock held elsewhere; running startup reconciliation without enrichment")
		orch.Scan(ctx, recon.ScanOptions{CreateSidecars: adv.StartupSidecarCreation})
	}

	watcherLock := lockfile.WatcherLock(cfg.LocksPath)
	if watcherLock.TryAcquire() {
		log.Printf("Won watcher lock; this process runs the periodic rescan loop")
		watcher := recon.NewWatcher(orch, time.Duration(cfg.ScanIntervalSeconds)*time.Second)
		go watcher.Run(ctx)
	} else {
		log.Printf("Watcher lock held elsewhere; periodic rescanning delegated")
	}

	log.Printf("Serving images from: %s", cfg.ImagesPath)
	log.Printf("Data directory: %s", cfg.DataPath)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(corsHandler.Handler)

	galleryHandler := &handlers.GalleryHandler{Orch: orch, Title: cfg.GalleryTitle}
	adminHandler := &handlers.AdminHandler{Orch: orch, Media: mediaStore, Title: cfg.GalleryTitle}
	settingsHandler := &handlers.SettingsHandler{Settings: settings}

	r.Get("/", galleryHandler.Index)
	r.Get("/artwork/{filename}", galleryHandler.Artwork)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", adminHandler.Page)
		r.Post("/upload", adminHandler.Upload)
		r.Post("/update/{filename}", adminHandler.Update)
		r.Post("/delete/{filename}", adminHandler.Delete)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/pending", func(w http.ResponseWriter, req *http.Request) {
			handlers.WriteJSON(w, http.StatusOK, orch.Scan(req.Context(), recon.ScanOptions{CreateSidecars: true}))
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/ai", settingsHandler.GetAI)
			r.Put("/ai", settingsHandler.UpdateAI)
			r.Get("/advanced", settingsHandler.GetAdvanced)
			r.Put("/advanced", settingsHandler.UpdateAdvanced)
		})
	})

	r.Get(imagesRoutePrefix+"*", handlers.AssetServer(cfg.ImagesPath, imagesRoutePrefix))
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticPath))).ServeHTTP(w, req)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// release the watcher role so another process can take it over
	watcherLock.Release()
	pool.Stop()
	log.Printf("Shutdown complete")
}
