package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinWhittecar/mechforge/internal/config"
	"github.com/JustinWhittecar/mechforge/internal/models"
)

func sampleUnit() *models.UnitRecord {
	m := models.NewSlotMap()
	m.Slots(models.CenterTorso)[0] = models.FixedSlot(models.CategoryEngine)
	m.Slots(models.RightArm)[4] = models.EquipmentSlot("ml-1")
	return &models.UnitRecord{
		Chassis:  "Hunchback",
		Model:    "HBK-4G",
		Mass:     50,
		TechBase: models.InnerSphere,
		SystemComponents: models.SystemComponents{
			Engine:    models.EngineComponent{Type: "Standard", Rating: 200},
			Gyro:      models.GyroComponent{Type: "Standard"},
			Structure: models.StructureComponent{Type: "Standard"},
			HeatSinks: models.HeatSinkComponent{Type: "Single", Count: 13, EngineIntegrated: 8, ExternalRequired: 5},
		},
		CriticalAllocations: m,
		Equipment: []models.EquipmentEntry{
			{ID: "ml-1", ItemName: "Medium Laser", ItemType: "weapon", Location: models.RightArm, Tons: 1, Crits: 1},
		},
	}
}

// storeContract runs the UnitStore behaviour every backend must share.
func storeContract(t *testing.T, s UnitStore) {
	ctx := context.Background()

	u := sampleUnit()
	require.NoError(t, s.Create(ctx, u))
	require.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.SystemComponents, got.SystemComponents)
	assert.True(t, u.CriticalAllocations.Equal(got.CriticalAllocations))
	assert.Equal(t, u.Equipment, got.Equipment)

	got.Model = "HBK-4P"
	got.SystemComponents.Engine.Type = "XL"
	require.NoError(t, s.Save(ctx, got))

	again, err := s.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "HBK-4P", again.Model)
	assert.Equal(t, "XL", again.SystemComponents.Engine.Type)

	other := sampleUnit()
	other.Chassis = "Atlas"
	require.NoError(t, s.Create(ctx, other))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Atlas", list[0].Chassis)
	assert.Equal(t, "HBK-4P", list[1].Model)
	assert.Equal(t, models.InnerSphere, list[1].TechBase)

	require.NoError(t, s.Delete(ctx, other.ID))
	_, err = s.Get(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, other.ID), ErrNotFound)

	missing := sampleUnit()
	missing.ID = 9999
	assert.ErrorIs(t, s.Save(ctx, missing), ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "units.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	storeContract(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	u := sampleUnit()
	require.NoError(t, s.Create(context.Background(), u))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hunchback HBK-4G", got.FullName())
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MECHFORGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MECHFORGE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.Pool.Exec(ctx, `TRUNCATE units`)
	require.NoError(t, err)

	storeContract(t, s)
}

func TestOpen(t *testing.T) {
	var cfg config.StoreConfig
	cfg.Driver = "sqlite"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "open.db")

	s, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)

	cfg.Driver = "mongo"
	_, err = Open(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
