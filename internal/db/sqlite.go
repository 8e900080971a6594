package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

// ConnectSQLite opens a read-write SQLite database with WAL enabled.
func ConnectSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps WAL from returning SQLITE_BUSY under concurrent saves
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLite connects to path and creates the units table if needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := ConnectSQLite(path)
	if err != nil {
		return nil, err
	}
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS units (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chassis TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			mass INTEGER NOT NULL,
			tech_base TEXT NOT NULL,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_units_name ON units(chassis, model)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]UnitSummary, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, chassis, model, mass, tech_base, updated_at FROM units ORDER BY chassis, model, id`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	units := []UnitSummary{}
	for rows.Next() {
		var u UnitSummary
		var updated string
		if err := rows.Scan(&u.ID, &u.Chassis, &u.Model, &u.Mass, &u.TechBase, &updated); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		units = append(units, u)
	}
	return units, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*models.UnitRecord, error) {
	var doc string
	err := s.DB.QueryRowContext(ctx, `SELECT document FROM units WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get unit %d: %w", id, err)
	}
	var u models.UnitRecord
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return nil, fmt.Errorf("decode unit %d: %w", id, err)
	}
	u.ID = id
	return &u, nil
}

func (s *SQLiteStore) Create(ctx context.Context, u *models.UnitRecord) error {
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO units (chassis, model, mass, tech_base, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '{}', ?, ?)`,
		u.Chassis, u.Model, u.Mass, string(u.TechBase), ts.Format(time.RFC3339Nano), ts.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert unit %q: %w", u.FullName(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert unit %q: %w", u.FullName(), err)
	}
	u.ID = id

	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode unit: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE units SET document = ? WHERE id = ?`, string(doc), id); err != nil {
		return fmt.Errorf("store unit %d: %w", id, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Save(ctx context.Context, u *models.UnitRecord) error {
	prev := u.UpdatedAt
	u.UpdatedAt = now()
	doc, err := json.Marshal(u)
	if err != nil {
		u.UpdatedAt = prev
		return fmt.Errorf("encode unit: %w", err)
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE units SET chassis = ?, model = ?, mass = ?, tech_base = ?, document = ?, updated_at = ? WHERE id = ?`,
		u.Chassis, u.Model, u.Mass, string(u.TechBase), string(doc), u.UpdatedAt.Format(time.RFC3339Nano), u.ID)
	if err != nil {
		u.UpdatedAt = prev
		return fmt.Errorf("save unit %d: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		u.UpdatedAt = prev
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM units WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete unit %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}
