package models

import (
	"time"

	"github.com/google/uuid"
)

type EngineComponent struct {
	Type   string `json:"type"`
	Rating int    `json:"rating"`
}

type GyroComponent struct {
	Type string `json:"type"`
}

type StructureComponent struct {
	Type string `json:"type"`
}

type HeatSinkComponent struct {
	Type             string `json:"type"`
	Count            int    `json:"count"`
	EngineIntegrated int    `json:"engineIntegrated"`
	ExternalRequired int    `json:"externalRequired"`
}

// SystemComponents is the authoritative structural state of a unit. The data
// mirror and the critical slot map are both derived from it.
type SystemComponents struct {
	Engine    EngineComponent    `json:"engine"`
	Gyro      GyroComponent      `json:"gyro"`
	Structure StructureComponent `json:"structure"`
	HeatSinks HeatSinkComponent  `json:"heatSinks"`
}

// DataMirror is the flat projection of SystemComponents kept for legacy
// display code. It is regenerated on every sync, never edited directly.
type DataMirror struct {
	Engine    EngineComponent    `json:"engine"`
	Gyro      GyroComponent      `json:"gyro"`
	Structure StructureComponent `json:"structure"`
	HeatSinks HeatSinkComponent  `json:"heat_sinks"`
}

// GeneratedHeatSinks tags equipment entries created for external heat sinks.
const GeneratedHeatSinks = "heat_sinks"

type EquipmentEntry struct {
	ID        string   `json:"id"`
	ItemName  string   `json:"item_name"`
	ItemType  string   `json:"item_type"`
	Location  Location `json:"location,omitempty"`
	Tons      float64  `json:"tons"`
	Crits     int      `json:"crits"`
	Generated string   `json:"generated,omitempty"`
}

// NewEquipmentID returns a fresh ID for an equipment entry.
func NewEquipmentID() string {
	return uuid.NewString()
}

// IsGenerated reports whether the entry was synthesized from a structural
// choice. Only generated entries are ever added or removed by sync.
func (e EquipmentEntry) IsGenerated() bool {
	return e.Generated != ""
}

// Weights is the tonnage bookkeeping returned with every sync.
type Weights struct {
	Gyro              float64 `json:"gyro"`
	Structure         float64 `json:"structure"`
	ExternalHeatSinks float64 `json:"external_heat_sinks"`
	Equipment         float64 `json:"equipment"`
	Total             float64 `json:"total"`
}

type UnitRecord struct {
	ID          int64    `json:"id"`
	Chassis     string   `json:"chassis"`
	Model       string   `json:"model"`
	Mass        int      `json:"mass"`
	TechBase    TechBase `json:"tech_base"`
	Era         string   `json:"era,omitempty"`
	Role        string   `json:"role,omitempty"`
	Description string   `json:"description,omitempty"`

	Data                DataMirror            `json:"data"`
	SystemComponents    SystemComponents      `json:"systemComponents"`
	CriticalAllocations SlotMap               `json:"criticalAllocations"`
	CriticalSlots       map[Location][]string `json:"criticalSlots,omitempty"`
	Equipment           []EquipmentEntry      `json:"weapons_and_equipment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns "Chassis Model" or just "Chassis" if model is empty.
func (u *UnitRecord) FullName() string {
	if u.Model == "" {
		return u.Chassis
	}
	return u.Chassis + " " + u.Model
}

// EquipmentByID returns the entry with the given ID.
func (u *UnitRecord) EquipmentByID(id string) (EquipmentEntry, bool) {
	for _, e := range u.Equipment {
		if e.ID == id {
			return e, true
		}
	}
	return EquipmentEntry{}, false
}

// Clone returns a copy that shares no slices or maps with u.
func (u *UnitRecord) Clone() *UnitRecord {
	c := *u
	c.CriticalAllocations = u.CriticalAllocations.Clone()
	c.Equipment = append([]EquipmentEntry(nil), u.Equipment...)
	if u.CriticalSlots != nil {
		c.CriticalSlots = make(map[Location][]string, len(u.CriticalSlots))
		for loc, names := range u.CriticalSlots {
			c.CriticalSlots[loc] = append([]string(nil), names...)
		}
	}
	return &c
}

// PartialUnitUpdate is the result of a sync call. Nil fields are unchanged.
type PartialUnitUpdate struct {
	SystemComponents    *SystemComponents     `json:"systemComponents,omitempty"`
	CriticalAllocations SlotMap               `json:"criticalAllocations,omitempty"`
	CriticalSlots       map[Location][]string `json:"criticalSlots,omitempty"`
	Data                *DataMirror           `json:"data,omitempty"`
	// Equipment is nil when the list is unchanged. An emptied list is an
	// empty, non-nil slice and encodes as [].
	Equipment           []EquipmentEntry      `json:"weapons_and_equipment"`
	Weights             *Weights              `json:"weights,omitempty"`
}

// Apply merges p into u shallowly, replacing each field p carries.
func (u *UnitRecord) Apply(p *PartialUnitUpdate) {
	if p == nil {
		return
	}
	if p.SystemComponents != nil {
		u.SystemComponents = *p.SystemComponents
	}
	if p.CriticalAllocations != nil {
		u.CriticalAllocations = p.CriticalAllocations.Clone()
	}
	if p.CriticalSlots != nil {
		u.CriticalSlots = p.CriticalSlots
	}
	if p.Data != nil {
		u.Data = *p.Data
	}
	if p.Equipment != nil {
		u.Equipment = append(make([]EquipmentEntry, 0, len(p.Equipment)), p.Equipment...)
	}
}
