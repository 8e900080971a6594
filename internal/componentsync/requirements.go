package componentsync

import (
	"github.com/JustinWhittecar/mechforge/internal/equipment"
	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
	"github.com/JustinWhittecar/mechforge/internal/slots"
)

// Requirements derives the engine, gyro and structure slot requirements of
// sc. Heat-sink requirements depend on the free space those leave and are
// planned separately.
func Requirements(t *rules.Tables, sc models.SystemComponents, tb models.TechBase) (slots.Requirements, error) {
	if t == nil {
		t = rules.Default()
	}
	engine, err := t.EngineSlots(sc.Engine.Type, tb)
	if err != nil {
		return nil, err
	}
	gyro, err := t.GyroSlots(sc.Gyro.Type)
	if err != nil {
		return nil, err
	}
	structure, err := t.StructureSlots(sc.Structure.Type, tb)
	if err != nil {
		return nil, err
	}

	var r slots.Requirements
	r = r.Add(models.CategoryEngine, engine.PerLocation)
	r = r.Add(models.CategoryGyro, map[models.Location]int{models.CenterTorso: gyro})
	r = r.Add(models.CategoryStructure, structure.PerLocation)
	return r, nil
}

// ProjectData regenerates the flat data mirror from sc.
func ProjectData(sc models.SystemComponents) models.DataMirror {
	return models.DataMirror{
		Engine:    sc.Engine,
		Gyro:      sc.Gyro,
		Structure: sc.Structure,
		HeatSinks: sc.HeatSinks,
	}
}

// integrate recomputes the engine-integrated and external heat-sink counts.
func integrate(t *rules.Tables, sc *models.SystemComponents) {
	sc.HeatSinks.EngineIntegrated = min(sc.HeatSinks.Count, t.EngineIntegratedHeatSinkCapacity(sc.Engine.Rating))
	sc.HeatSinks.ExternalRequired = rules.ExternalHeatSinks(sc.HeatSinks.Count, t.EngineIntegratedHeatSinkCapacity(sc.Engine.Rating))
}

func weights(t *rules.Tables, sc models.SystemComponents, mass int, list []models.EquipmentEntry) (models.Weights, error) {
	gyro, err := t.GyroWeight(sc.Gyro.Type, sc.Engine.Rating)
	if err != nil {
		return models.Weights{}, err
	}
	structure, err := t.StructureWeight(sc.Structure.Type, mass)
	if err != nil {
		return models.Weights{}, err
	}
	per, err := t.WeightPerExternalHeatSink(sc.HeatSinks.Type)
	if err != nil {
		return models.Weights{}, err
	}
	sum := equipment.Sum(list)

	w := models.Weights{
		Gyro:              gyro,
		Structure:         structure,
		ExternalHeatSinks: float64(sc.HeatSinks.ExternalRequired) * per,
		Equipment:         sum.Tons - sum.GeneratedTons,
	}
	w.Total = w.Gyro + w.Structure + w.ExternalHeatSinks + w.Equipment
	return w, nil
}
