// Package rules holds the construction lookup tables that map a structural
// choice (engine, gyro, internal structure, heat sinks) and tech base to the
// critical slots and tonnage it costs.
package rules

import (
	"math"
	"sort"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

// SlotSpread maps a location to a slot count.
type SlotSpread map[models.Location]int

// Total sums the spread.
func (s SlotSpread) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// Locations returns the locations with a non-zero count in canonical order.
func (s SlotSpread) Locations() []models.Location {
	var locs []models.Location
	for _, loc := range models.Locations {
		if s[loc] > 0 {
			locs = append(locs, loc)
		}
	}
	return locs
}

// Layout is a resolved slot cost: a total and where it lands.
type Layout struct {
	Total       int        `json:"total"`
	PerLocation SlotSpread `json:"per_location"`
}

func layoutOf(s SlotSpread) Layout {
	per := make(SlotSpread, len(s))
	for loc, n := range s {
		if n > 0 {
			per[loc] = n
		}
	}
	return Layout{Total: per.Total(), PerLocation: per}
}

type EngineRule struct {
	InnerSphere SlotSpread `yaml:"inner_sphere" json:"inner_sphere"`
	Clan        SlotSpread `yaml:"clan" json:"clan"`
}

type GyroRule struct {
	Slots            int     `yaml:"slots" json:"slots"`
	WeightMultiplier float64 `yaml:"weight_multiplier" json:"weight_multiplier"`
}

type StructureRule struct {
	InnerSphere    SlotSpread `yaml:"inner_sphere" json:"inner_sphere"`
	Clan           SlotSpread `yaml:"clan" json:"clan"`
	WeightFraction float64    `yaml:"weight_fraction" json:"weight_fraction"`
}

type HeatSinkRule struct {
	InnerSphereSlots int     `yaml:"inner_sphere_slots" json:"inner_sphere_slots"`
	ClanSlots        int     `yaml:"clan_slots" json:"clan_slots"`
	Tons             float64 `yaml:"tons" json:"tons"`
}

// Tables is the full rules catalog. Map keys are the canonical type names.
type Tables struct {
	Engines    map[string]EngineRule    `yaml:"engines" json:"engines"`
	Gyros      map[string]GyroRule      `yaml:"gyros" json:"gyros"`
	Structures map[string]StructureRule `yaml:"structures" json:"structures"`
	HeatSinks  map[string]HeatSinkRule  `yaml:"heat_sinks" json:"heat_sinks"`

	// An engine carries one heat sink per RatingPerIntegratedHeatSink points
	// of rating, up to IntegratedHeatSinkCap, at no slot cost.
	RatingPerIntegratedHeatSink int `yaml:"rating_per_integrated_heat_sink" json:"rating_per_integrated_heat_sink"`
	IntegratedHeatSinkCap       int `yaml:"integrated_heat_sink_cap" json:"integrated_heat_sink_cap"`

	// HeatSinkPlacement is the location preference for external heat sinks.
	HeatSinkPlacement []models.Location `yaml:"heat_sink_placement" json:"heat_sink_placement"`

	// Equipment sizes user items found in MTF slot lists.
	Equipment map[string]EquipmentRule `yaml:"equipment" json:"equipment"`
}

// Builtin returns a fresh copy of the built-in tables.
func Builtin() *Tables {
	return &Tables{
		Engines: map[string]EngineRule{
			"Standard": {
				InnerSphere: SlotSpread{models.CenterTorso: 6},
				Clan:        SlotSpread{models.CenterTorso: 6},
			},
			"XL": {
				InnerSphere: SlotSpread{models.CenterTorso: 6, models.LeftTorso: 3, models.RightTorso: 3},
				Clan:        SlotSpread{models.CenterTorso: 6, models.LeftTorso: 2, models.RightTorso: 2},
			},
			"Light": {
				InnerSphere: SlotSpread{models.CenterTorso: 6, models.LeftTorso: 2, models.RightTorso: 2},
				Clan:        SlotSpread{models.CenterTorso: 6, models.LeftTorso: 2, models.RightTorso: 2},
			},
			"XXL": {
				InnerSphere: SlotSpread{models.CenterTorso: 6, models.LeftTorso: 6, models.RightTorso: 6},
				Clan:        SlotSpread{models.CenterTorso: 6, models.LeftTorso: 6, models.RightTorso: 6},
			},
			"Compact": {
				InnerSphere: SlotSpread{models.CenterTorso: 3},
				Clan:        SlotSpread{models.CenterTorso: 3},
			},
		},
		Gyros: map[string]GyroRule{
			"Standard":   {Slots: 4, WeightMultiplier: 1.0},
			"Compact":    {Slots: 2, WeightMultiplier: 1.5},
			"Heavy-Duty": {Slots: 4, WeightMultiplier: 2.0},
			"XL":         {Slots: 6, WeightMultiplier: 0.5},
		},
		Structures: map[string]StructureRule{
			"Standard":   {WeightFraction: 0.10},
			"Composite":  {WeightFraction: 0.05},
			"Reinforced": {WeightFraction: 0.20},
			"Industrial": {WeightFraction: 0.20},
			"Endo Steel": {
				InnerSphere: SlotSpread{
					models.LeftArm: 3, models.RightArm: 3,
					models.LeftTorso: 3, models.RightTorso: 3,
					models.LeftLeg: 1, models.RightLeg: 1,
				},
				Clan: SlotSpread{
					models.LeftArm: 2, models.RightArm: 2,
					models.LeftTorso: 1, models.RightTorso: 1,
					models.CenterTorso: 1,
				},
				WeightFraction: 0.05,
			},
		},
		HeatSinks: map[string]HeatSinkRule{
			"Single": {InnerSphereSlots: 1, ClanSlots: 1, Tons: 1.0},
			"Double": {InnerSphereSlots: 3, ClanSlots: 2, Tons: 1.0},
		},
		RatingPerIntegratedHeatSink: 25,
		IntegratedHeatSinkCap:       10,
		HeatSinkPlacement: []models.Location{
			models.LeftTorso, models.RightTorso,
			models.LeftArm, models.RightArm,
			models.LeftLeg, models.RightLeg,
			models.CenterTorso, models.Head,
		},
		Equipment: builtinEquipment(),
	}
}

var defaultTables = Builtin()

// Default returns the process-wide tables. Callers must not mutate them.
func Default() *Tables {
	return defaultTables
}

// SetDefault replaces the process-wide tables, e.g. after LoadFile.
func SetDefault(t *Tables) {
	if t != nil {
		defaultTables = t
	}
}

func pickSpread(is, clan SlotSpread, tb models.TechBase) SlotSpread {
	if tb.IsClan() && clan != nil {
		return clan
	}
	return is
}

// EngineSlots returns the critical slots taken by an engine type.
func (t *Tables) EngineSlots(engineType string, tb models.TechBase) (Layout, error) {
	name, err := t.CanonicalEngine(engineType)
	if err != nil {
		return Layout{}, err
	}
	r := t.Engines[name]
	return layoutOf(pickSpread(r.InnerSphere, r.Clan, componentTech(engineType, tb))), nil
}

// GyroSlots returns the Center Torso slots taken by a gyro type.
func (t *Tables) GyroSlots(gyroType string) (int, error) {
	name, err := t.CanonicalGyro(gyroType)
	if err != nil {
		return 0, err
	}
	return t.Gyros[name].Slots, nil
}

// StructureSlots returns the slots taken by an internal structure type.
func (t *Tables) StructureSlots(structureType string, tb models.TechBase) (Layout, error) {
	name, err := t.CanonicalStructure(structureType)
	if err != nil {
		return Layout{}, err
	}
	r := t.Structures[name]
	return layoutOf(pickSpread(r.InnerSphere, r.Clan, componentTech(structureType, tb))), nil
}

// HeatSinkSlotsPerUnit returns the slots one external heat sink occupies.
func (t *Tables) HeatSinkSlotsPerUnit(hsType string, tb models.TechBase) (int, error) {
	name, err := t.CanonicalHeatSink(hsType)
	if err != nil {
		return 0, err
	}
	r := t.HeatSinks[name]
	if componentTech(hsType, tb).IsClan() && r.ClanSlots > 0 {
		return r.ClanSlots, nil
	}
	return r.InnerSphereSlots, nil
}

// WeightPerExternalHeatSink returns the tonnage of one external heat sink.
func (t *Tables) WeightPerExternalHeatSink(hsType string) (float64, error) {
	name, err := t.CanonicalHeatSink(hsType)
	if err != nil {
		return 0, err
	}
	return t.HeatSinks[name].Tons, nil
}

// EngineIntegratedHeatSinkCapacity is floor(rating/25) capped at 10.
func (t *Tables) EngineIntegratedHeatSinkCapacity(rating int) int {
	if rating <= 0 || t.RatingPerIntegratedHeatSink <= 0 {
		return 0
	}
	n := rating / t.RatingPerIntegratedHeatSink
	if n > t.IntegratedHeatSinkCap {
		n = t.IntegratedHeatSinkCap
	}
	return n
}

// ExternalHeatSinks returns max(0, count-integrated).
func ExternalHeatSinks(count, integrated int) int {
	if count <= integrated {
		return 0
	}
	return count - integrated
}

// GyroWeight is ceil(rating/100) times the gyro multiplier, rounded up to
// the half ton.
func (t *Tables) GyroWeight(gyroType string, rating int) (float64, error) {
	name, err := t.CanonicalGyro(gyroType)
	if err != nil {
		return 0, err
	}
	base := math.Ceil(float64(rating) / 100.0)
	return ceilHalf(base * t.Gyros[name].WeightMultiplier), nil
}

// StructureWeight is the unit mass times the structure fraction, rounded up
// to the half ton.
func (t *Tables) StructureWeight(structureType string, mass int) (float64, error) {
	name, err := t.CanonicalStructure(structureType)
	if err != nil {
		return 0, err
	}
	return ceilHalf(float64(mass) * t.Structures[name].WeightFraction), nil
}

func ceilHalf(v float64) float64 {
	// 1e-9 absorbs float error in products like 55*0.1.
	return math.Ceil(v*2-1e-9) / 2
}

// Names lists the canonical type names of each table, sorted.
func (t *Tables) Names() map[string][]string {
	return map[string][]string{
		"engines":    sortedKeys(t.Engines),
		"gyros":      sortedKeys(t.Gyros),
		"structures": sortedKeys(t.Structures),
		"heat_sinks": sortedKeys(t.HeatSinks),
		"equipment":  sortedKeys(t.Equipment),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package-level lookups against Default().

func EngineSlots(engineType string, tb models.TechBase) (Layout, error) {
	return Default().EngineSlots(engineType, tb)
}

func GyroSlots(gyroType string) (int, error) {
	return Default().GyroSlots(gyroType)
}

func StructureSlots(structureType string, tb models.TechBase) (Layout, error) {
	return Default().StructureSlots(structureType, tb)
}

func HeatSinkSlotsPerUnit(hsType string, tb models.TechBase) (int, error) {
	return Default().HeatSinkSlotsPerUnit(hsType, tb)
}

func EngineIntegratedHeatSinkCapacity(rating int) int {
	return Default().EngineIntegratedHeatSinkCapacity(rating)
}

func WeightPerExternalHeatSink(hsType string) (float64, error) {
	return Default().WeightPerExternalHeatSink(hsType)
}
