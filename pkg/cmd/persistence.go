package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/observe2agent/observe2agent/pkg/persistence"
	"github.com/observe2agent/observe2agent/pkg/persistence/file"
	"github.com/observe2agent/observe2agent/pkg/persistence/postgresql"
	"github.com/observe2agent/observe2agent/pkg/persistence/redis"
)

// NewPersistence picks the run store from the URL scheme. URLs without a
// known scheme are treated as a directory for the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis":
		return redis.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres"
	case "redis", "rediss":
		return "redis"
	default:
		return "file"
	}
}
