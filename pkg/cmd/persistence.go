package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/persistence/file"
	"github.com/voxflow/voxflow/pkg/persistence/postgres"
)

// NewPersistence creates a persistence layer from a database URL. Postgres
// URLs get the SQL layer, everything else falls back to file storage.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch provider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgres.NewPersistence(ctx, databaseURL, logger)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgres persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func provider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
