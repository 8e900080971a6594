// Package slots rewrites a unit's critical slot map when the fixed systems
// required by its structural choices change. User equipment and locked
// slots (cockpit, actuators) are never moved or evicted.
package slots

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

// ErrInsufficientSlots matches any *InsufficientSlotsError via errors.Is.
var ErrInsufficientSlots = errors.New("insufficient slots")

// InsufficientSlotsError reports a location that cannot hold the fixed
// systems asked of it without evicting user equipment. An empty Location
// means no location in the placement order had room.
type InsufficientSlotsError struct {
	Location  models.Location
	Required  int
	Available int
}

func (e *InsufficientSlotsError) Error() string {
	where := "any location"
	if e.Location != "" {
		where = e.Location.Name()
	}
	return fmt.Sprintf("insufficient slots in %s: %d required, %d available", where, e.Required, e.Available)
}

func (e *InsufficientSlotsError) Is(target error) bool {
	return target == ErrInsufficientSlots
}

// Requirement asks for Slots markers of Category in Location.
type Requirement struct {
	Category models.Category `json:"category"`
	Location models.Location `json:"location"`
	Slots    int             `json:"slots"`
}

// Requirements is the full set of fixed-system slots a configuration needs.
type Requirements []Requirement

// Add appends one requirement per location of spread with a non-zero count,
// in canonical location order.
func (r Requirements) Add(c models.Category, spread map[models.Location]int) Requirements {
	for _, loc := range models.Locations {
		if n := spread[loc]; n > 0 {
			r = append(r, Requirement{Category: c, Location: loc, Slots: n})
		}
	}
	return r
}

// For sums the requirement per category for one location.
func (r Requirements) For(loc models.Location) map[models.Category]int {
	out := map[models.Category]int{}
	for _, req := range r {
		if req.Location == loc && req.Slots > 0 {
			out[req.Category] += req.Slots
		}
	}
	return out
}

// Total sums every requirement in loc.
func (r Requirements) Total(loc models.Location) int {
	n := 0
	for _, v := range r.For(loc) {
		n += v
	}
	return n
}

// Locations returns the locations named by r in canonical order.
func (r Requirements) Locations() []models.Location {
	seen := map[models.Location]bool{}
	for _, req := range r {
		if req.Slots > 0 {
			seen[req.Location] = true
		}
	}
	var locs []models.Location
	for _, loc := range models.Locations {
		if seen[loc] {
			locs = append(locs, loc)
		}
	}
	// Unknown locations sort last so Reallocate can report them.
	var extra []models.Location
	for loc := range seen {
		if loc.Index() < 0 {
			extra = append(extra, loc)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(locs, extra...)
}

// Only keeps the requirements of category c.
func (r Requirements) Only(c models.Category) Requirements {
	var out Requirements
	for _, req := range r {
		if req.Category == c {
			out = append(out, req)
		}
	}
	return out
}

// Without drops the requirements of category c.
func (r Requirements) Without(c models.Category) Requirements {
	var out Requirements
	for _, req := range r {
		if req.Category != c {
			out = append(out, req)
		}
	}
	return out
}

// Spread flattens r to per-location slot counts.
func (r Requirements) Spread() map[models.Location]int {
	out := map[models.Location]int{}
	for _, req := range r {
		if req.Slots > 0 {
			out[req.Location] += req.Slots
		}
	}
	return out
}

func sameCounts(a, b map[models.Category]int) bool {
	if len(a) != len(b) {
		return false
	}
	for c, n := range a {
		if b[c] != n {
			return false
		}
	}
	return true
}

// Reallocate rewrites the fixed-system markers of every location named by
// old or next. In each such location it clears the markers of the categories
// either set names there, then writes next's markers into the first empty
// slots in category order. Locations named by neither set are returned
// untouched, as are locations whose markers already satisfy next.
func Reallocate(current models.SlotMap, old, next Requirements) (models.SlotMap, error) {
	out := current.Clone()

	touched := append(old.Locations(), next.Locations()...)
	done := map[models.Location]bool{}
	for _, loc := range touched {
		if done[loc] {
			continue
		}
		done[loc] = true

		want := next.For(loc)
		slots := out.Slots(loc)
		if slots == nil {
			if required := next.Total(loc); required > 0 {
				return nil, &InsufficientSlotsError{Location: loc, Required: required}
			}
			continue
		}

		if sameCounts(old.For(loc), want) && satisfied(slots, want) {
			continue
		}

		clear := map[models.Category]bool{}
		for c := range old.For(loc) {
			clear[c] = true
		}
		for c := range want {
			clear[c] = true
		}

		rewritten, err := rewrite(loc, slots, clear, want)
		if err != nil {
			return nil, err
		}
		out.Set(loc, rewritten)
	}
	return out, nil
}

// satisfied reports whether slots hold exactly the wanted marker counts.
func satisfied(slots []models.Slot, want map[models.Category]int) bool {
	have := map[models.Category]int{}
	for _, s := range slots {
		if s.Kind == models.SlotFixed {
			have[s.Category]++
		}
	}
	for c, n := range want {
		if have[c] != n {
			return false
		}
	}
	for c, n := range have {
		if n > 0 && want[c] == 0 {
			return false
		}
	}
	return true
}

func rewrite(loc models.Location, slots []models.Slot, clear map[models.Category]bool, want map[models.Category]int) ([]models.Slot, error) {
	next := make([]models.Slot, len(slots))
	available := 0
	for i, s := range slots {
		if s.Kind == models.SlotFixed && clear[s.Category] {
			s = models.EmptySlot()
		}
		if s.IsEmpty() {
			s = models.EmptySlot()
			available++
		}
		next[i] = s
	}

	var markers []models.Slot
	for _, c := range models.CategoryOrder {
		for i := 0; i < want[c]; i++ {
			markers = append(markers, models.FixedSlot(c))
		}
	}
	// Categories outside CategoryOrder still get written, after the known ones.
	var extra []models.Category
	for c := range want {
		if c.Rank() == len(models.CategoryOrder) {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, c := range extra {
		for i := 0; i < want[c]; i++ {
			markers = append(markers, models.FixedSlot(c))
		}
	}

	if len(markers) > available {
		return nil, &InsufficientSlotsError{Location: loc, Required: len(markers), Available: available}
	}

	m := 0
	for i := range next {
		if m == len(markers) {
			break
		}
		if next[i].IsEmpty() {
			next[i] = markers[m]
			m++
		}
	}
	return next, nil
}

// Current reads the fixed-system markers actually present in m as
// requirements, in canonical location and category order.
func Current(m models.SlotMap) Requirements {
	var r Requirements
	for _, loc := range models.Locations {
		for _, c := range models.CategoryOrder {
			if n := m.FixedCount(loc, c); n > 0 {
				r = append(r, Requirement{Category: c, Location: loc, Slots: n})
			}
		}
	}
	return r
}

// Check verifies slot conservation: every location holds at most its
// capacity and no more slots than the map defines.
func Check(m models.SlotMap) error {
	for _, ls := range m {
		if !ls.Location.Valid() {
			return fmt.Errorf("slot map: unknown location %q", ls.Location)
		}
		if len(ls.Slots) > ls.Location.Capacity() {
			return fmt.Errorf("slot map: %s has %d slots, capacity %d", ls.Location.Name(), len(ls.Slots), ls.Location.Capacity())
		}
	}
	return nil
}
