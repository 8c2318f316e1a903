package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	uuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	pingAttempts  = 5
	pingBaseDelay = 200 * time.Millisecond
)

type DatabaseConfig struct {
	ConnectionURL string
}

// NewDatabaseConfig builds the postgres connection URL from configuration.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		return nil, errors.New("postgres configuration is missing or invalid")
	}
	pg := cfg.Repositories.Postgres

	params := url.Values{}
	params.Set("sslmode", pg.SSLMODE)
	if pg.SSLMODE == "" {
		params.Set("sslmode", "disable")
	}
	params.Set("timezone", "utc")
	if pg.MAXCONWAITINGTIME > 0 {
		params.Set("connect_timeout", strconv.Itoa(pg.MAXCONWAITINGTIME))
	}

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     pg.Host + ":" + pg.Port,
		Path:     pg.DB,
		RawQuery: params.Encode(),
	}
	logger.Info("Database connection URL generated", slog.String("host", u.Host), slog.String("database", pg.DB))
	return &DatabaseConfig{ConnectionURL: u.String()}, nil
}

// RunMigrations brings the itinerary schema up to the latest embedded
// version. A dirty schema is an error.
func RunMigrations(databaseURL string, logger *slog.Logger) error {
	l := logger.With(slog.String("component", "migrations"))
	if u, err := url.Parse(databaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return errors.New("database URL must use the postgres:// or postgresql:// scheme")
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			l.Warn("Error closing migrator", slog.Any("source_error", srcErr), slog.Any("db_error", dbErr))
		}
	}()

	l.Info("Applying database migrations")
	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil {
		l.Warn("Could not determine migration version", slog.Any("error", err))
		return nil
	}
	if dirty {
		return fmt.Errorf("database migration state is dirty at version %d", version)
	}
	l.Info("Database schema is current",
		slog.Uint64("version", uint64(version)),
		slog.Bool("changed", upErr == nil))
	return nil
}

// Init opens the pgx pool and registers google/uuid as the uuid codec on
// every connection.
func Init(connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		uuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}
	logger.Info("Database connection pool initialized", slog.Int("max_conns", int(cfg.MaxConns)))
	return pool, nil
}

// WaitForDB pings the pool with a linearly growing delay and reports whether
// it answered before the attempts ran out.
func WaitForDB(ctx context.Context, pgpool *pgxpool.Pool, logger *slog.Logger) bool {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = pgpool.Ping(ctx); err == nil {
			logger.InfoContext(ctx, "Database connection successful")
			return true
		}
		if attempt == pingAttempts {
			break
		}

		delay := time.Duration(attempt) * pingBaseDelay
		logger.WarnContext(ctx, "Database ping failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.Any("error", err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
	logger.ErrorContext(ctx, "Database unreachable", slog.Int("attempts", pingAttempts), slog.Any("error", err))
	return false
}
