// Package cmd provides shared initialization for the command-line binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vallabhn1/MallCCTV/pkg/persistence"
	"github.com/vallabhn1/MallCCTV/pkg/persistence/file"
	"github.com/vallabhn1/MallCCTV/pkg/persistence/postgresql"
)

// NewPersistence picks the store backend from the database URL scheme:
// postgres:// for PostgreSQL, anything else is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}
