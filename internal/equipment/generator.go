// Package equipment keeps a unit's weapons_and_equipment list in step with
// equipment implied by its structural choices. Only entries tagged as
// generated are ever added, removed or rewritten.
package equipment

import (
	"fmt"

	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
)

// HeatSinkName is the item name of a generated external heat sink.
func HeatSinkName(hsType string) string {
	return hsType + " Heat Sink"
}

// CountGenerated counts entries carrying tag.
func CountGenerated(list []models.EquipmentEntry, tag string) int {
	n := 0
	for _, e := range list {
		if e.Generated == tag {
			n++
		}
	}
	return n
}

// ReconcileHeatSinks returns list with exactly externalRequired generated
// heat-sink entries of hsType. Missing entries are appended, surplus entries
// are removed from the end of the generated subset, and survivors are
// retyped if the heat-sink type changed. Untagged entries keep their
// relative order and contents. list itself is not modified.
func ReconcileHeatSinks(t *rules.Tables, list []models.EquipmentEntry, hsType string, tb models.TechBase, externalRequired int) ([]models.EquipmentEntry, error) {
	if t == nil {
		t = rules.Default()
	}
	name, err := t.CanonicalHeatSink(hsType)
	if err != nil {
		return nil, err
	}
	tons, err := t.WeightPerExternalHeatSink(name)
	if err != nil {
		return nil, err
	}
	crits, err := t.HeatSinkSlotsPerUnit(hsType, tb)
	if err != nil {
		return nil, err
	}
	if externalRequired < 0 {
		return nil, fmt.Errorf("reconcile heat sinks: negative count %d", externalRequired)
	}

	have := CountGenerated(list, models.GeneratedHeatSinks)
	drop := max(0, have-externalRequired)

	out := make([]models.EquipmentEntry, 0, len(list)+max(0, externalRequired-have))
	seen := 0
	for _, e := range list {
		if e.Generated != models.GeneratedHeatSinks {
			out = append(out, e)
			continue
		}
		seen++
		if seen > have-drop {
			continue
		}
		e.ItemName = HeatSinkName(name)
		e.ItemType = "equipment"
		e.Tons = tons
		e.Crits = crits
		out = append(out, e)
	}

	for i := have; i < externalRequired; i++ {
		out = append(out, models.EquipmentEntry{
			ID:        models.NewEquipmentID(),
			ItemName:  HeatSinkName(name),
			ItemType:  "equipment",
			Tons:      tons,
			Crits:     crits,
			Generated: models.GeneratedHeatSinks,
		})
	}
	return out, nil
}

// AssignLocations sets the location of each generated heat sink from the
// per-location heat-sink slot counts in layout. An entry keeps its location
// while that location still has a free unit; the rest are handed out in
// order. list itself is not modified.
func AssignLocations(list []models.EquipmentEntry, layout map[models.Location]int, perUnit int, order []models.Location) []models.EquipmentEntry {
	out := append(make([]models.EquipmentEntry, 0, len(list)), list...)
	if perUnit <= 0 {
		return out
	}
	free := map[models.Location]int{}
	for loc, n := range layout {
		free[loc] = n / perUnit
	}

	var pending []int
	for i, e := range out {
		if e.Generated != models.GeneratedHeatSinks {
			continue
		}
		if e.Location != "" && free[e.Location] > 0 {
			free[e.Location]--
			continue
		}
		pending = append(pending, i)
	}

	seq := append(append([]models.Location(nil), order...), models.Locations...)
	for _, i := range pending {
		out[i].Location = ""
		for _, loc := range seq {
			if free[loc] > 0 {
				free[loc]--
				out[i].Location = loc
				break
			}
		}
	}
	return out
}

// Totals is the tonnage and slot bookkeeping of an equipment list.
type Totals struct {
	Tons           float64 `json:"tons"`
	Crits          int     `json:"crits"`
	GeneratedTons  float64 `json:"generated_tons"`
	GeneratedCount int     `json:"generated_count"`
}

func Sum(list []models.EquipmentEntry) Totals {
	var t Totals
	for _, e := range list {
		t.Tons += e.Tons
		t.Crits += e.Crits
		if e.IsGenerated() {
			t.GeneratedTons += e.Tons
			t.GeneratedCount++
		}
	}
	return t
}
