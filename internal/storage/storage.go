// Package storage persists refresh snapshots. Persistence is optional; the
// API serves from the in-memory cache either way.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Store receives the full article set after each successful refresh.
type Store interface {
	Name() string
	SaveSnapshot(ctx context.Context, articles []types.Article) error
	Close(ctx context.Context) error
}

// New creates the configured store, or nil when persistence is disabled.
func New(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "json":
		return NewJSONStore(cfg.OutputPath, logger), nil
	case "csv":
		return NewCSVStore(cfg.OutputPath, logger), nil
	case "mongodb":
		return NewMongoStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
