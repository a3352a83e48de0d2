package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"listing_editor/internal/adapters/cms"
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

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "listing-lookupsync", cfg.LogLevel)

	log.Info().
		Str("base", cfg.CMSBase).
		Int("workers", cfg.SyncWorkers).
		Int("rps", cfg.CMSRPS).
		Msg("lookup sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := cms.New(cfg.CMSBase, cfg.CMSKey, cfg.CMSRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize CMS client")
	}
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()

	syncer := app.NewLookupSyncService(client, repo, redisad.New(rdb))
	sem := semaphore.NewWeighted(int64(cfg.SyncWorkers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, name := range domain.Collections {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		wg.Add(1)
		go func(collection string) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := syncer.SyncCollection(ctx, collection)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("collection", collection).Err(err).Msg("sync failed")
				return
			}
			log.Info().Str("collection", collection).Int("records", n).Msg("sync ok")
		}(name)
	}
	wg.Wait()

	if err := syncer.InvalidateSnapshot(ctx); err != nil {
		log.Warn().Err(err).Msg("snapshot invalidation failed")
	}
	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed", n).Msg("lookup sync finished with failures")
	}
	log.Info().Msg("lookup sync completed")
}
