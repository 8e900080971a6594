package slots

import (
	"github.com/JustinWhittecar/mechforge/internal/models"
)

// HeatSinkLayout counts the heat-sink markers per location of m.
func HeatSinkLayout(m models.SlotMap) map[models.Location]int {
	out := map[models.Location]int{}
	for _, ls := range m {
		if n := m.FixedCount(ls.Location, models.CategoryHeatSink); n > 0 {
			out[ls.Location] = n
		}
	}
	return out
}

// HeatSinkPlan is the input to PlanHeatSinks.
type HeatSinkPlan struct {
	// Fixed holds the new engine, gyro and structure requirements; heat sinks
	// only get what those leave free.
	Fixed Requirements
	// Previous is the current heat-sink slot count per location. Placements
	// are kept where they still fit so unrelated edits do not shuffle them.
	Previous map[models.Location]int
	Units    int
	PerUnit  int
	Order    []models.Location
}

// PlanHeatSinks places external heat sinks as whole units. Existing
// placements are kept when still valid; surplus units are dropped from the
// end of the preference order, and new units go to the first location in
// order with room for a whole unit.
func PlanHeatSinks(m models.SlotMap, p HeatSinkPlan) (Requirements, error) {
	if p.Units <= 0 || p.PerUnit <= 0 {
		return nil, nil
	}
	order := placementOrder(p.Order, p.Previous)

	free := map[models.Location]int{}
	for _, loc := range order {
		slots := m.Slots(loc)
		if slots == nil {
			continue
		}
		n := len(slots) - p.Fixed.Total(loc)
		for _, s := range slots {
			if s.Kind == models.SlotLocked || s.Kind == models.SlotEquipment {
				n--
			}
		}
		if n > 0 {
			free[loc] = n
		}
	}

	units := map[models.Location]int{}
	placed := 0
	for _, loc := range order {
		prev := p.Previous[loc]
		if prev == 0 || prev%p.PerUnit != 0 {
			continue
		}
		k := min(prev/p.PerUnit, free[loc]/p.PerUnit)
		units[loc] = k
		placed += k
	}

	for i := len(order) - 1; i >= 0 && placed > p.Units; i-- {
		loc := order[i]
		drop := min(units[loc], placed-p.Units)
		units[loc] -= drop
		placed -= drop
	}

	for _, loc := range order {
		if placed == p.Units {
			break
		}
		room := (free[loc] - units[loc]*p.PerUnit) / p.PerUnit
		add := min(room, p.Units-placed)
		if add > 0 {
			units[loc] += add
			placed += add
		}
	}

	if placed < p.Units {
		left := 0
		for _, loc := range order {
			left += free[loc] - units[loc]*p.PerUnit
		}
		err := &InsufficientSlotsError{Required: (p.Units - placed) * p.PerUnit, Available: left}
		if len(order) > 0 {
			err.Location = order[len(order)-1]
		}
		return nil, err
	}

	var out Requirements
	for _, loc := range order {
		if units[loc] > 0 {
			out = append(out, Requirement{Category: models.CategoryHeatSink, Location: loc, Slots: units[loc] * p.PerUnit})
		}
	}
	return out, nil
}

// placementOrder returns order followed by any location holding previous
// heat sinks that order does not mention.
func placementOrder(order []models.Location, previous map[models.Location]int) []models.Location {
	seen := map[models.Location]bool{}
	out := make([]models.Location, 0, len(models.Locations))
	for _, loc := range order {
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	for _, loc := range models.Locations {
		if !seen[loc] && previous[loc] > 0 {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	return out
}
