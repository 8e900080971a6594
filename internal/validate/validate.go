// Package validate annotates a unit with construction warnings. It never
// blocks an edit; the editor shows the warnings next to the unit.
package validate

import (
	"fmt"

	"github.com/JustinWhittecar/mechforge/internal/componentsync"
	"github.com/JustinWhittecar/mechforge/internal/equipment"
	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
	"github.com/JustinWhittecar/mechforge/internal/slots"
)

type Warning struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Location models.Location `json:"location,omitempty"`
}

const (
	CodeEngineRating     = "engine_rating"
	CodeWalkMP           = "walk_mp"
	CodeMinHeatSinks     = "min_heat_sinks"
	CodeTechMismatch     = "tech_mismatch"
	CodeOverCapacity     = "over_capacity"
	CodeSlotMarkers      = "slot_markers"
	CodeGeneratedCount   = "generated_equipment"
	CodeMirrorDrift      = "data_mirror"
	CodeUnknownComponent = "unknown_component"
)

// Inner Sphere designs with no Clan equivalent.
var innerSphereOnly = map[string][]string{
	"engine": {"Light", "Compact", "XXL"},
	"gyro":   {"Compact", "Heavy-Duty", "XL"},
}

// Unit returns the warnings for u, in a stable order.
func Unit(t *rules.Tables, u *models.UnitRecord) []Warning {
	if t == nil {
		t = rules.Default()
	}
	var out []Warning
	add := func(code string, loc models.Location, format string, args ...any) {
		out = append(out, Warning{Code: code, Location: loc, Message: fmt.Sprintf(format, args...)})
	}
	sc := u.SystemComponents

	if r := sc.Engine.Rating; r < 10 || r > 500 || r%5 != 0 {
		add(CodeEngineRating, "", "engine rating %d must be a multiple of 5 between 10 and 500", r)
	}
	if u.Mass > 0 && sc.Engine.Rating/u.Mass < 1 {
		add(CodeWalkMP, "", "engine rating %d gives a %d ton unit no walking MP", sc.Engine.Rating, u.Mass)
	}
	if sc.HeatSinks.Count < 10 {
		add(CodeMinHeatSinks, "", "%d heat sinks, at least 10 required", sc.HeatSinks.Count)
	}
	if u.TechBase.IsClan() {
		for _, name := range innerSphereOnly["engine"] {
			if sc.Engine.Type == name {
				add(CodeTechMismatch, "", "%s engine is not available to Clan units", name)
			}
		}
		for _, name := range innerSphereOnly["gyro"] {
			if sc.Gyro.Type == name {
				add(CodeTechMismatch, "", "%s gyro is not available to Clan units", name)
			}
		}
	}

	for _, ls := range u.CriticalAllocations {
		if !ls.Location.Valid() {
			add(CodeOverCapacity, ls.Location, "unknown location %q", ls.Location)
			continue
		}
		if n := u.CriticalAllocations.Occupied(ls.Location); n > ls.Location.Capacity() {
			add(CodeOverCapacity, ls.Location, "%s holds %d slots, capacity %d", ls.Location.Name(), n, ls.Location.Capacity())
		}
	}

	want, err := componentsync.Requirements(t, sc, u.TechBase)
	if err != nil {
		add(CodeUnknownComponent, "", "%v", err)
	} else {
		have := slots.Current(u.CriticalAllocations)
		for _, c := range []models.Category{models.CategoryEngine, models.CategoryGyro, models.CategoryStructure} {
			w, h := want.Only(c).Spread(), have.Only(c).Spread()
			for _, loc := range models.Locations {
				if w[loc] != h[loc] {
					add(CodeSlotMarkers, loc, "%s: %d %s slots placed, %d required", loc.Name(), h[loc], c, w[loc])
				}
			}
		}
		if per, err := t.HeatSinkSlotsPerUnit(sc.HeatSinks.Type, u.TechBase); err == nil {
			placed := 0
			for _, n := range slots.HeatSinkLayout(u.CriticalAllocations) {
				placed += n
			}
			if need := sc.HeatSinks.ExternalRequired * per; placed != need {
				add(CodeSlotMarkers, "", "%d heat sink slots placed, %d required", placed, need)
			}
		}
	}

	if n := equipment.CountGenerated(u.Equipment, models.GeneratedHeatSinks); n != sc.HeatSinks.ExternalRequired {
		add(CodeGeneratedCount, "", "%d generated heat sinks, %d external heat sinks required", n, sc.HeatSinks.ExternalRequired)
	}
	if u.Data != componentsync.ProjectData(sc) {
		add(CodeMirrorDrift, "", "data mirror differs from system components")
	}
	return out
}
