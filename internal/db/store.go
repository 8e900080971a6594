// Package db persists unit records. The record is stored whole as a JSON
// document next to a few columns used for listing.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/mechforge/internal/config"
	"github.com/JustinWhittecar/mechforge/internal/models"
)

var ErrNotFound = errors.New("unit not found")

// UnitSummary is one row of a unit listing.
type UnitSummary struct {
	ID        int64           `json:"id"`
	Chassis   string          `json:"chassis"`
	Model     string          `json:"model"`
	Mass      int             `json:"mass"`
	TechBase  models.TechBase `json:"tech_base"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UnitStore loads and saves unit records.
type UnitStore interface {
	List(ctx context.Context) ([]UnitSummary, error)
	Get(ctx context.Context, id int64) (*models.UnitRecord, error)
	// Create assigns u.ID and the timestamps.
	Create(ctx context.Context, u *models.UnitRecord) error
	// Save replaces the stored record and bumps u.UpdatedAt.
	Save(ctx context.Context, u *models.UnitRecord) error
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Open connects the backend named by cfg.Driver and makes sure its schema
// exists.
func Open(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (UnitStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		s, err := OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("Using local SQLite unit store")
		return s, nil
	case "postgres":
		s, err := OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Connected to Postgres unit store")
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
