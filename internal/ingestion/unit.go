package ingestion

import (
	"strings"

	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
	"github.com/JustinWhittecar/mechforge/internal/slots"
)

// ToUnit converts parsed MTF data into a unit record. System components come
// from the header lines, the slot map and equipment list from the location
// blocks, sized and weighed from the default rules catalog. The result still
// needs a sync Initialize pass to canonicalise component names and generate
// external heat sinks.
func (d *MTFData) ToUnit() *models.UnitRecord {
	gyro := d.Gyro
	if gyro == "" {
		gyro = "Standard"
	}
	structure := d.Structure
	if structure == "" {
		structure = "Standard"
	}
	hsType := d.HeatSinkType
	if hsType == "" {
		hsType = "Single"
	}
	engine := d.EngineType
	if engine == "" {
		engine = "Fusion Engine"
	}

	u := &models.UnitRecord{
		Chassis:     d.Chassis,
		Model:       d.Model,
		Mass:        d.Mass,
		TechBase:    models.NormalizeTechBase(d.TechBase),
		Era:         eraFromYear(d.Year),
		Role:        d.Role,
		Description: d.Overview,
		SystemComponents: models.SystemComponents{
			Engine:    models.EngineComponent{Type: engine, Rating: d.EngineRating},
			Gyro:      models.GyroComponent{Type: gyro},
			Structure: models.StructureComponent{Type: structure},
			HeatSinks: models.HeatSinkComponent{Type: hsType, Count: d.HeatSinkCount},
		},
	}

	if len(d.LocationEquipment) == 0 {
		u.CriticalAllocations = models.NewSlotMap()
		return u
	}

	names := make(map[models.Location][]string, len(d.LocationEquipment))
	for loc, list := range d.LocationEquipment {
		names[loc] = append([]string(nil), list...)
	}
	m, eq := slots.FromNames(names, nil, rules.Default())

	weapons := map[string]bool{}
	for _, w := range d.Weapons {
		weapons[strings.ToLower(w.Name)] = true
	}
	for i := range eq {
		if weapons[strings.ToLower(eq[i].ItemName)] {
			eq[i].ItemType = "weapon"
		}
	}

	u.CriticalAllocations = m
	u.CriticalSlots = names
	u.Equipment = eq
	return u
}
