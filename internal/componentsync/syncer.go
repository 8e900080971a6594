// Package componentsync translates one edit to a unit's structural choices
// (engine, gyro, internal structure, heat sinks) into a complete, consistent
// partial update: new system components, critical slot map, generated
// equipment and the data mirror. Calls are synchronous and never mutate the
// unit they are given; the caller applies the returned update as a whole.
package componentsync

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/mechforge/internal/equipment"
	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
	"github.com/JustinWhittecar/mechforge/internal/slots"
)

// DataSourceMode selects which slot representation a Syncer reads.
type DataSourceMode int

const (
	// ModeAllocations reads and writes the typed criticalAllocations map.
	ModeAllocations DataSourceMode = iota
	// ModeLegacySlots reads the criticalSlots name lists and writes both
	// representations.
	ModeLegacySlots
)

func (m DataSourceMode) String() string {
	switch m {
	case ModeAllocations:
		return "allocations"
	case ModeLegacySlots:
		return "legacy"
	}
	return fmt.Sprintf("DataSourceMode(%d)", int(m))
}

// ParseMode maps a config value onto a DataSourceMode.
func ParseMode(s string) (DataSourceMode, error) {
	switch s {
	case "", "allocations":
		return ModeAllocations, nil
	case "legacy", "legacy_slots":
		return ModeLegacySlots, nil
	}
	return 0, fmt.Errorf("unknown sync mode %q", s)
}

// ErrInvalidValue is returned for negative ratings or counts.
var ErrInvalidValue = errors.New("invalid component value")

type Options struct {
	Mode   DataSourceMode
	Tables *rules.Tables
	Logger zerolog.Logger
}

type Syncer struct {
	mode   DataSourceMode
	tables *rules.Tables
	log    zerolog.Logger
}

func New(opts Options) *Syncer {
	t := opts.Tables
	if t == nil {
		t = rules.Default()
	}
	return &Syncer{
		mode:   opts.Mode,
		tables: t,
		log:    opts.Logger.With().Str("component", "componentsync").Logger(),
	}
}

func (s *Syncer) Mode() DataSourceMode { return s.mode }

func (s *Syncer) Tables() *rules.Tables { return s.tables }

// EngineChange sets the engine type and rating. A rating change moves the
// engine's integrated heat-sink capacity, so external heat sinks follow.
func (s *Syncer) EngineChange(u *models.UnitRecord, engineType string, rating int) (*models.PartialUnitUpdate, error) {
	name, err := s.tables.CanonicalEngine(engineType)
	if err != nil {
		return nil, err
	}
	if rating < 0 {
		return nil, fmt.Errorf("%w: engine rating %d", ErrInvalidValue, rating)
	}
	return s.sync(u, "engine", func(sc *models.SystemComponents) {
		sc.Engine = models.EngineComponent{Type: name, Rating: rating}
	})
}

func (s *Syncer) GyroChange(u *models.UnitRecord, gyroType string) (*models.PartialUnitUpdate, error) {
	name, err := s.tables.CanonicalGyro(gyroType)
	if err != nil {
		return nil, err
	}
	return s.sync(u, "gyro", func(sc *models.SystemComponents) {
		sc.Gyro = models.GyroComponent{Type: name}
	})
}

func (s *Syncer) StructureChange(u *models.UnitRecord, structureType string) (*models.PartialUnitUpdate, error) {
	name, err := s.tables.CanonicalStructure(structureType)
	if err != nil {
		return nil, err
	}
	return s.sync(u, "structure", func(sc *models.SystemComponents) {
		sc.Structure = models.StructureComponent{Type: name}
	})
}

// HeatSinkChange sets the heat-sink type and total count, integrated ones
// included.
func (s *Syncer) HeatSinkChange(u *models.UnitRecord, hsType string, count int) (*models.PartialUnitUpdate, error) {
	name, err := s.tables.CanonicalHeatSink(hsType)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: heat sink count %d", ErrInvalidValue, count)
	}
	return s.sync(u, "heat_sinks", func(sc *models.SystemComponents) {
		sc.HeatSinks.Type = name
		sc.HeatSinks.Count = count
	})
}

// Initialize brings a freshly created or imported unit into a consistent
// state: component names canonical, slot map and generated equipment derived
// from its system components.
func (s *Syncer) Initialize(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
	sc := u.SystemComponents
	var err error
	if sc.Engine.Type, err = s.tables.CanonicalEngine(orDefault(sc.Engine.Type)); err != nil {
		return nil, err
	}
	if sc.Gyro.Type, err = s.tables.CanonicalGyro(orDefault(sc.Gyro.Type)); err != nil {
		return nil, err
	}
	if sc.Structure.Type, err = s.tables.CanonicalStructure(orDefault(sc.Structure.Type)); err != nil {
		return nil, err
	}
	hs := sc.HeatSinks.Type
	if hs == "" {
		hs = "Single"
	}
	if sc.HeatSinks.Type, err = s.tables.CanonicalHeatSink(hs); err != nil {
		return nil, err
	}
	if sc.Engine.Rating < 0 || sc.HeatSinks.Count < 0 {
		return nil, fmt.Errorf("%w: engine rating %d, heat sink count %d", ErrInvalidValue, sc.Engine.Rating, sc.HeatSinks.Count)
	}
	return s.sync(u, "initialize", func(next *models.SystemComponents) {
		*next = sc
	})
}

func orDefault(name string) string {
	if name == "" {
		return "Standard"
	}
	return name
}

// snapshot returns the unit's current slot map and equipment list in the
// representation selected by the mode. Neither aliases u.
func (s *Syncer) snapshot(u *models.UnitRecord) (models.SlotMap, []models.EquipmentEntry) {
	list := append([]models.EquipmentEntry(nil), u.Equipment...)
	switch s.mode {
	case ModeLegacySlots:
		if len(u.CriticalSlots) > 0 {
			return slots.FromNames(u.CriticalSlots, list, s.tables)
		}
	default:
		if len(u.CriticalAllocations) > 0 {
			return u.CriticalAllocations.Clone(), list
		}
	}
	return models.NewSlotMap(), list
}

func (s *Syncer) sync(u *models.UnitRecord, field string, change func(*models.SystemComponents)) (*models.PartialUnitUpdate, error) {
	if u == nil {
		return nil, errors.New("sync: nil unit")
	}
	tb := u.TechBase
	current, list := s.snapshot(u)

	next := u.SystemComponents
	change(&next)
	integrate(s.tables, &next)

	fixed, err := Requirements(s.tables, next, tb)
	if err != nil {
		return nil, err
	}
	perUnit, err := s.tables.HeatSinkSlotsPerUnit(next.HeatSinks.Type, tb)
	if err != nil {
		return nil, err
	}
	hs, err := slots.PlanHeatSinks(current, slots.HeatSinkPlan{
		Fixed:    fixed,
		Previous: slots.HeatSinkLayout(current),
		Units:    next.HeatSinks.ExternalRequired,
		PerUnit:  perUnit,
		Order:    s.tables.HeatSinkPlacement,
	})
	if err != nil {
		s.log.Debug().Err(err).Int64("unit", u.ID).Str("field", field).Msg("heat sinks do not fit")
		return nil, err
	}
	want := append(append(slots.Requirements(nil), fixed...), hs...)

	// The markers already in the map are the old requirements; they cover
	// units whose stored components and slots disagree.
	old := slots.Current(current)
	nextMap, err := slots.Reallocate(current, old, want)
	if err != nil {
		s.log.Debug().Err(err).Int64("unit", u.ID).Str("field", field).Msg("reallocation failed")
		return nil, err
	}

	nextList, err := equipment.ReconcileHeatSinks(s.tables, list, next.HeatSinks.Type, tb, next.HeatSinks.ExternalRequired)
	if err != nil {
		return nil, err
	}
	nextList = equipment.AssignLocations(nextList, slots.HeatSinkLayout(nextMap), perUnit, s.tables.HeatSinkPlacement)

	w, err := weights(s.tables, next, u.Mass, nextList)
	if err != nil {
		return nil, err
	}

	data := ProjectData(next)
	update := &models.PartialUnitUpdate{
		SystemComponents:    &next,
		CriticalAllocations: nextMap,
		Data:                &data,
		Weights:             &w,
	}
	if !slices.Equal(nextList, u.Equipment) {
		update.Equipment = nextList
	}
	if s.mode == ModeLegacySlots {
		update.CriticalSlots = legacyNames(nextMap, nextList, next.HeatSinks.Type)
	}

	s.log.Debug().
		Int64("unit", u.ID).
		Str("field", field).
		Int("external_heat_sinks", next.HeatSinks.ExternalRequired).
		Float64("tons", w.Total).
		Msg("synced")
	return update, nil
}

func legacyNames(m models.SlotMap, list []models.EquipmentEntry, hsType string) map[models.Location][]string {
	return slots.ToNames(m, list, map[models.Category]string{
		models.CategoryHeatSink: equipment.HeatSinkName(hsType),
	})
}
