package models

// Category names a fixed system whose critical slots are derived from a
// structural choice rather than placed by the user.
type Category string

const (
	CategoryEngine    Category = "engine"
	CategoryGyro      Category = "gyro"
	CategoryStructure Category = "structure"
	CategoryHeatSink  Category = "heat_sink"
)

// CategoryOrder is the order fixed systems are written into a location.
var CategoryOrder = []Category{CategoryEngine, CategoryGyro, CategoryStructure, CategoryHeatSink}

// Rank returns the position of c in CategoryOrder, or len(CategoryOrder) if unknown.
func (c Category) Rank() int {
	for i, cat := range CategoryOrder {
		if cat == c {
			return i
		}
	}
	return len(CategoryOrder)
}

// Label is the slot text shown in crit tables and written to MTF-style lists.
func (c Category) Label() string {
	switch c {
	case CategoryEngine:
		return "Fusion Engine"
	case CategoryGyro:
		return "Gyro"
	case CategoryStructure:
		return "Endo Steel"
	case CategoryHeatSink:
		return "Heat Sink"
	}
	return string(c)
}

type SlotKind string

const (
	SlotEmpty     SlotKind = "empty"
	SlotFixed     SlotKind = "fixed"
	SlotLocked    SlotKind = "locked"
	SlotEquipment SlotKind = "equipment"
)

// Slot is one critical slot. Exactly one of Category (fixed), Label (locked)
// or Ref (equipment) is meaningful, selected by Kind.
type Slot struct {
	Kind     SlotKind `json:"kind"`
	Category Category `json:"category,omitempty"`
	Label    string   `json:"label,omitempty"`
	Ref      string   `json:"ref,omitempty"`
}

func EmptySlot() Slot { return Slot{Kind: SlotEmpty} }

func FixedSlot(c Category) Slot { return Slot{Kind: SlotFixed, Category: c} }

// LockedSlot is a cockpit, sensor, life support or actuator slot. Sync never
// moves or clears these.
func LockedSlot(label string) Slot { return Slot{Kind: SlotLocked, Label: label} }

// EquipmentSlot references a user-placed entry in weapons_and_equipment by ID.
func EquipmentSlot(ref string) Slot { return Slot{Kind: SlotEquipment, Ref: ref} }

func (s Slot) IsEmpty() bool { return s.Kind == SlotEmpty || s.Kind == "" }

func (s Slot) IsFixed(c Category) bool { return s.Kind == SlotFixed && s.Category == c }

// LocationSlots is the ordered slot list of a single location.
type LocationSlots struct {
	Location Location `json:"location"`
	Slots    []Slot   `json:"slots"`
}

// SlotMap is the per-location critical slot layout of a unit, in Locations order.
type SlotMap []LocationSlots

var lockedLayout = map[Location][]string{
	Head:     {"Life Support", "Sensors", "Cockpit", "", "Sensors", "Life Support"},
	LeftArm:  {"Shoulder", "Upper Arm Actuator", "Lower Arm Actuator", "Hand Actuator"},
	RightArm: {"Shoulder", "Upper Arm Actuator", "Lower Arm Actuator", "Hand Actuator"},
	LeftLeg:  {"Hip", "Upper Leg Actuator", "Lower Leg Actuator", "Foot Actuator"},
	RightLeg: {"Hip", "Upper Leg Actuator", "Lower Leg Actuator", "Foot Actuator"},
}

// NewSlotMap returns the empty biped layout: cockpit, sensors, life support
// and actuators locked in place, everything else empty.
func NewSlotMap() SlotMap {
	m := make(SlotMap, 0, len(Locations))
	for _, loc := range Locations {
		slots := make([]Slot, loc.Capacity())
		for i := range slots {
			slots[i] = EmptySlot()
		}
		for i, label := range lockedLayout[loc] {
			if label != "" {
				slots[i] = LockedSlot(label)
			}
		}
		m = append(m, LocationSlots{Location: loc, Slots: slots})
	}
	return m
}

// Clone returns a deep copy.
func (m SlotMap) Clone() SlotMap {
	if m == nil {
		return nil
	}
	out := make(SlotMap, len(m))
	for i, ls := range m {
		out[i] = LocationSlots{Location: ls.Location, Slots: append([]Slot(nil), ls.Slots...)}
	}
	return out
}

func (m SlotMap) index(loc Location) int {
	for i, ls := range m {
		if ls.Location == loc {
			return i
		}
	}
	return -1
}

// Slots returns the slot list for loc, or nil if the map has no such location.
// The returned slice aliases the map.
func (m SlotMap) Slots(loc Location) []Slot {
	if i := m.index(loc); i >= 0 {
		return m[i].Slots
	}
	return nil
}

// Set replaces the slots of loc, appending the location if missing.
func (m *SlotMap) Set(loc Location, slots []Slot) {
	if i := m.index(loc); i >= 0 {
		(*m)[i].Slots = slots
		return
	}
	*m = append(*m, LocationSlots{Location: loc, Slots: slots})
}

// Occupied counts the non-empty slots in loc.
func (m SlotMap) Occupied(loc Location) int {
	n := 0
	for _, s := range m.Slots(loc) {
		if !s.IsEmpty() {
			n++
		}
	}
	return n
}

// Count counts the slots in loc matching pred.
func (m SlotMap) Count(loc Location, pred func(Slot) bool) int {
	n := 0
	for _, s := range m.Slots(loc) {
		if pred(s) {
			n++
		}
	}
	return n
}

// FixedCount counts the markers of category c in loc.
func (m SlotMap) FixedCount(loc Location, c Category) int {
	return m.Count(loc, func(s Slot) bool { return s.IsFixed(c) })
}

// IndexOf returns the slot indexes in loc holding equipment ref.
func (m SlotMap) IndexOf(loc Location, ref string) []int {
	var idx []int
	for i, s := range m.Slots(loc) {
		if s.Kind == SlotEquipment && s.Ref == ref {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m SlotMap) Equal(o SlotMap) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i].Location != o[i].Location || len(m[i].Slots) != len(o[i].Slots) {
			return false
		}
		for j := range m[i].Slots {
			if !slotEqual(m[i].Slots[j], o[i].Slots[j]) {
				return false
			}
		}
	}
	return true
}

func slotEqual(a, b Slot) bool {
	if a.IsEmpty() && b.IsEmpty() {
		return true
	}
	return a == b
}
