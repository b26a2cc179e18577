package sql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	// import the postgres driver - "pgx"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	// import the sqlite driver - "sqlite"
	_ "modernc.org/sqlite"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/storage/sql/schemas"
)

const (
	// These are the only drivers currently supported
	SQLITE_DRIVER   = "sqlite"
	POSTGRES_DRIVER = "pgx"

	TABLE_TOURNAMENTS  = "tournaments"
	TABLE_PARTICIPANTS = "participants"
	TABLE_EPOCHS       = "epochs"
	TABLE_RUNS         = "runs"
	TABLE_RESULTS      = "results"
	TABLE_BASELINES    = "baselines"
)

type SQLStorage struct {
	sqlConfig *SQLDatabaseConfig
	pool      *sql.DB
	ctx       context.Context
	logger    *slog.Logger
}

func NewStorage(config map[string]any, logger *slog.Logger) (abstractions.Storage, error) {
	var sqlConfig SQLDatabaseConfig
	err := mapstructure.Decode(config, &sqlConfig)
	if err != nil {
		return nil, err
	}

	// check that the driver is supported
	switch sqlConfig.Driver {
	case SQLITE_DRIVER:
		break
	case POSTGRES_DRIVER:
		break
	default:
		return nil, getUnsupportedDriverError(sqlConfig.Driver)
	}

	logger.Info("Creating SQL storage", "driver", sqlConfig.Driver, "url", sqlConfig.URL)

	pool, err := sql.Open(sqlConfig.Driver, sqlConfig.URL)
	if err != nil {
		return nil, err
	}

	if sqlConfig.ConnMaxLifetime != nil {
		pool.SetConnMaxLifetime(*sqlConfig.ConnMaxLifetime)
	}
	if sqlConfig.MaxIdleConns != nil {
		pool.SetMaxIdleConns(*sqlConfig.MaxIdleConns)
	}
	if sqlConfig.MaxOpenConns != nil {
		pool.SetMaxOpenConns(*sqlConfig.MaxOpenConns)
	}

	storage := &SQLStorage{
		sqlConfig: &sqlConfig,
		pool:      pool,
		ctx:       context.Background(),
		logger:    logger,
	}

	// ping the database to verify the DSN provided by the user is valid and the server is accessible
	logger.Info("Pinging SQL storage", "driver", sqlConfig.Driver, "url", sqlConfig.URL)
	err = storage.Ping(1 * time.Second)
	if err != nil {
		return nil, err
	}

	// ensure the schemas are created
	logger.Info("Ensuring schemas are created", "driver", sqlConfig.Driver, "url", sqlConfig.URL)
	if err := storage.ensureSchema(); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *SQLStorage) WithLogger(logger *slog.Logger) abstractions.Storage {
	c := *s
	c.logger = logger
	return &c
}

func (s *SQLStorage) WithContext(ctx context.Context) abstractions.Storage {
	c := *s
	c.ctx = ctx
	return &c
}

// Ping the database to verify DSN provided by the user is valid and the
// server accessible. If the ping fails exit the program with an error.
func (s *SQLStorage) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.pool.PingContext(ctx)
}

func (s *SQLStorage) GetDatasourceName() string {
	return s.sqlConfig.Driver
}

func (s *SQLStorage) exec(query string, args ...any) (sql.Result, error) {
	return s.pool.ExecContext(s.ctx, query, args...)
}

func (s *SQLStorage) ensureSchema() error {
	schema := schemas.SchemaForDriver(s.sqlConfig.Driver)
	if schema == "" {
		return getUnsupportedDriverError(s.sqlConfig.Driver)
	}
	if _, err := s.pool.ExecContext(context.Background(), schema); err != nil {
		return err
	}

	return nil
}

func (s *SQLStorage) generateID() string {
	return uuid.New().String()
}

func (s *SQLStorage) Close() error {
	return s.pool.Close()
}
