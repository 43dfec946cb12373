package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mapgrid/placescout/internal/models"
)

// Database is the subset of pgxpool.Pool the store uses. Declared locally so
// tests can substitute a pgxmock pool.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Store persists search runs and their collected places.
type Store struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	SaveRun(ctx context.Context, run RunRecord) error
	SavePlaces(ctx context.Context, runID uuid.UUID, places []models.Place) error
}

// RunRecord summarizes one finished search run for storage.
type RunRecord struct {
	ID           uuid.UUID
	Query        string
	Center       models.GeoPoint
	RadiusKM     float64
	TargetCount  int
	ResultsCount int
	Strategy     string
}

// NewStore creates a new instance of Store with the provided Database.
// It returns a pointer to the newly created Store.
func NewStore(db Database, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

// NewDatabase opens a pgx connection pool for the given credentials and
// verifies connectivity with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
