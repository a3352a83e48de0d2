package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"listing_editor/internal/adapters/events"
	server "listing_editor/internal/adapters/http_server"
	"listing_editor/internal/adapters/observability"
	redisad "listing_editor/internal/adapters/redis"
	"listing_editor/internal/app"
	"listing_editor/internal/domain"
	"listing_editor/internal/shared"
	mysqlrepo "listing_editor/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "listing-api", cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()
	cache := redisad.New(rdb)

	var publisher domain.EventPublisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		p := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer p.Close()
		publisher = p
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("event publishing enabled")
	}

	lookups := app.NewLookupCatalog(repo, cache, cfg.CacheTTL())
	if _, err := lookups.Refresh(ctx); err != nil {
		// the catalog retries on first use; an empty table is not fatal
		log.Warn().Err(err).Msg("initial lookup load failed")
	}
	go lookups.Watch(ctx, cfg.CacheTTL())

	submit := app.NewSubmitService(repo, lookups, publisher, cache)
	drafts := app.NewDraftService(redisad.NewDraftStore(rdb), cfg.DraftTTL(), repo, lookups, submit)
	listings := app.NewListingQueryService(repo, lookups, cache, cfg.CacheTTL())

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Lookups:  lookups,
		Drafts:   drafts,
		Submit:   submit,
		Listings: listings,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
