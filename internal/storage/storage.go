package storage

import (
	"log/slog"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/internal/storage/sql"
)

// NewStorage builds the storage backend from the `database` section of the
// service config. SQL (sqlite or postgres) is the only backend.
func NewStorage(databaseConfig *map[string]any, logger *slog.Logger) (abstractions.Storage, error) {
	if databaseConfig == nil {
		return nil, serviceerrors.NewStorageError("database configuration is required")
	}
	return sql.NewStorage(*databaseConfig, logger)
}
