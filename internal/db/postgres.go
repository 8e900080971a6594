package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

// OpenPostgres connects to dsn, pings, and creates the units table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS units (
		id BIGSERIAL PRIMARY KEY,
		chassis TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		mass INTEGER NOT NULL,
		tech_base TEXT NOT NULL,
		document JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return NewPostgresStore(pool), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]UnitSummary, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, chassis, model, mass, tech_base, updated_at FROM units ORDER BY chassis, model, id`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	units := []UnitSummary{}
	for rows.Next() {
		var u UnitSummary
		var tb string
		if err := rows.Scan(&u.ID, &u.Chassis, &u.Model, &u.Mass, &tb, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.TechBase = models.TechBase(tb)
		units = append(units, u)
	}
	return units, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.UnitRecord, error) {
	var doc []byte
	err := s.Pool.QueryRow(ctx, `SELECT document FROM units WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get unit %d: %w", id, err)
	}
	var u models.UnitRecord
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("decode unit %d: %w", id, err)
	}
	u.ID = id
	return &u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *models.UnitRecord) error {
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO units (chassis, model, mass, tech_base, document, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, '{}'::jsonb, $5, $5)
		 RETURNING id`,
		u.Chassis, u.Model, u.Mass, string(u.TechBase), ts).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert unit %q: %w", u.FullName(), err)
	}
	u.ID = id

	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode unit: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE units SET document = $1 WHERE id = $2`, doc, id); err != nil {
		return fmt.Errorf("store unit %d: %w", id, err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Save(ctx context.Context, u *models.UnitRecord) error {
	prev := u.UpdatedAt
	u.UpdatedAt = now()
	doc, err := json.Marshal(u)
	if err != nil {
		u.UpdatedAt = prev
		return fmt.Errorf("encode unit: %w", err)
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE units SET chassis = $1, model = $2, mass = $3, tech_base = $4, document = $5, updated_at = $6 WHERE id = $7`,
		u.Chassis, u.Model, u.Mass, string(u.TechBase), doc, u.UpdatedAt, u.ID)
	if err != nil {
		u.UpdatedAt = prev
		return fmt.Errorf("save unit %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		u.UpdatedAt = prev
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete unit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}
