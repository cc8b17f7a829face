package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/config"
	"github.com/sawpanic/plateau/internal/plateau"
	"github.com/sawpanic/plateau/internal/sweep"
	"github.com/sawpanic/plateau/internal/sweep/pgstore"
	"github.com/sawpanic/plateau/internal/sweep/snapcache"
)

// loadDataset resolves the configured sweep source: a JSON export file, or
// Postgres with an optional Redis snapshot cache in front.
func loadDataset(ctx context.Context, cfg config.Config) (*sweep.Dataset, error) {
	if cfg.Dataset.File != "" {
		return sweep.LoadFile(cfg.Dataset.File)
	}
	if cfg.Dataset.PostgresDSN == "" {
		return nil, fmt.Errorf("no dataset source configured: set dataset.file or dataset.postgres_dsn")
	}

	var cache *snapcache.Cache
	if cfg.Dataset.RedisAddr != "" {
		c, err := snapcache.New(cfg.Dataset.RedisAddr, cfg.Dataset.SnapshotTTL)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot cache unavailable, loading direct from postgres")
		} else {
			cache = c
			defer cache.Close()
		}
	}

	snapKey := cfg.Dataset.Table
	if cache != nil {
		if ds, ok := cache.Get(ctx, snapKey); ok {
			log.Info().Str("dataset", ds.ID).Int("records", len(ds.Records)).Msg("sweep loaded from snapshot cache")
			return ds, nil
		}
	}

	storeCfg := pgstore.DefaultConfig()
	storeCfg.DSN = cfg.Dataset.PostgresDSN
	storeCfg.Table = cfg.Dataset.Table

	store, err := pgstore.NewStore(storeCfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ds, err := store.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Put(ctx, snapKey, ds)
	}
	return ds, nil
}

// newSession loads the dataset and builds a fresh analysis session.
func newSession(ctx context.Context, cfg config.Config) (*plateau.Session, error) {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return plateau.NewSession(ds, cfg.Limits.MaxRecords)
}
