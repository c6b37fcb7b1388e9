package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/zoynulabedin/snowlightv2-sub000/cache"
	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/db"
	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
	"github.com/zoynulabedin/snowlightv2-sub000/repository"
	"github.com/zoynulabedin/snowlightv2-sub000/storage"
)

var (
	_ Mirror        = &cache.SessionCache{}
	_ MediaResolver = &storage.MinioResolver{}
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter registers the session API on a gorilla/mux router.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/sessions", h.CreateSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}", h.GetSessionHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}", h.DeleteSessionHandler).Methods(http.MethodDelete)

	router.HandleFunc("/api/sessions/{id}/tracks/play", h.PlayTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/videos/play", h.PlayVideoHandler).Methods(http.MethodPost)

	// 队列
	router.HandleFunc("/api/sessions/{id}/queue", h.AddToQueueHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/queue", h.ClearQueueHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/queue/{trackId}", h.RemoveFromQueueHandler).Methods(http.MethodDelete)

	router.HandleFunc("/api/sessions/{id}/{surface}/close", h.CloseSurfaceHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/{surface}/transport", h.TransportHandler).Methods(http.MethodPost)

	router.HandleFunc("/ws/sessions/{id}/{surface}", h.WebSocketHandler).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return router
}

// Start connects the backing stores, serves the API and blocks until
// SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.Track{}, &model.Video{}); err != nil {
		return err
	}

	if err := db.ConnectRedis(cfg); err != nil {
		return err
	}
	defer db.CloseRedis()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	minioClient, err := storage.NewMinioClient(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}

	catalog := repository.NewGormCatalogRepository(db.GormDB)
	resolver := storage.NewMinioResolver(minioClient, cfg.MinioBucket, cfg.MediaURLExpiry)
	mirror := cache.NewSessionCache(db.RedisClient, cfg.SessionTTL)

	hub := NewHub(mirror,
		player.WithRestartThreshold(cfg.RestartThreshold),
		player.WithInitialVolume(cfg.DefaultVolume),
	)
	defer hub.Close()

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(NewAPIHandler(hub, catalog, catalog, resolver)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
