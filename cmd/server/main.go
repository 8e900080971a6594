package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/mechforge/internal/componentsync"
	"github.com/JustinWhittecar/mechforge/internal/config"
	"github.com/JustinWhittecar/mechforge/internal/db"
	"github.com/JustinWhittecar/mechforge/internal/handlers"
	"github.com/JustinWhittecar/mechforge/internal/live"
	"github.com/JustinWhittecar/mechforge/internal/logging"
	"github.com/JustinWhittecar/mechforge/internal/rules"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing mechforge.yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load(*configDir)
	if err != nil {
		boot := logging.New("info", true)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	tables := rules.Builtin()
	if cfg.Rules.File != "" {
		tables, err = rules.LoadFile(cfg.Rules.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Rules.File).Msg("failed to load rule tables")
		}
		log.Info().Str("file", cfg.Rules.File).Msg("rule tables loaded")
	}
	rules.SetDefault(tables)

	mode, err := componentsync.ParseMode(cfg.Sync.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sync mode")
	}

	store, err := db.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open unit store")
	}
	defer store.Close()

	hub := live.NewHub(log)
	go hub.Run(ctx)

	syncer := componentsync.New(componentsync.Options{Mode: mode, Tables: tables, Logger: log})
	unitsHandler := handlers.NewUnitsHandler(store, syncer, hub, log)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /healthz", handlers.Health)

	unitsHandler.Register(mux)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler: corsMiddleware(requestLogger(log, mux)),
	}

	go func() {
		log.Info().Int("port", cfg.HTTP.Port).Str("sync_mode", mode.String()).Msg("mechforge server listening")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func requestLogger(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		// Allow the local editor dev servers
		allowed := origin == "http://localhost:5173" || origin == "http://localhost:8080"
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
