package componentsync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

var (
	ErrSlotOccupied       = errors.New("slot occupied")
	ErrEquipmentNotFound  = errors.New("equipment not found")
	ErrGeneratedEquipment = errors.New("generated equipment is managed by component sync")
)

// PlaceEquipment adds a user item to the unit, occupying item.Crits
// consecutive slots of loc starting at index start. Structural choices are
// untouched; the update carries the slot map, equipment list and weights.
func (s *Syncer) PlaceEquipment(u *models.UnitRecord, item models.EquipmentEntry, loc models.Location, start int) (*models.PartialUnitUpdate, error) {
	if u == nil {
		return nil, errors.New("place equipment: nil unit")
	}
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: unknown location %q", ErrInvalidValue, loc)
	}
	item.ItemName = strings.TrimSpace(item.ItemName)
	if item.ItemName == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidValue)
	}
	if item.Crits < 0 || item.Tons < 0 {
		return nil, fmt.Errorf("%w: %s needs %d slots, %.1f tons", ErrInvalidValue, item.ItemName, item.Crits, item.Tons)
	}
	if item.ID == "" {
		item.ID = models.NewEquipmentID()
	}
	if _, ok := u.EquipmentByID(item.ID); ok {
		return nil, fmt.Errorf("%w: equipment id %q already in use", ErrInvalidValue, item.ID)
	}
	item.Generated = ""
	item.Location = loc

	current, list := s.snapshot(u)
	row := current.Slots(loc)
	if start < 0 || start+item.Crits > len(row) {
		return nil, fmt.Errorf("%w: slots %d..%d outside %s", ErrInvalidValue, start+1, start+item.Crits, loc.Name())
	}
	for i := start; i < start+item.Crits; i++ {
		if !row[i].IsEmpty() {
			return nil, fmt.Errorf("%w: %s slot %d", ErrSlotOccupied, loc.Name(), i+1)
		}
	}
	for i := start; i < start+item.Crits; i++ {
		row[i] = models.EquipmentSlot(item.ID)
	}
	list = append(list, item)

	s.log.Debug().Int64("unit", u.ID).Str("item", item.ItemName).Str("location", string(loc)).Int("slot", start).Msg("equipment placed")
	return s.equipmentUpdate(u, current, list)
}

// RemoveEquipment deletes a user item and clears the slots it occupied.
// Generated entries can only be changed through their structural field.
func (s *Syncer) RemoveEquipment(u *models.UnitRecord, id string) (*models.PartialUnitUpdate, error) {
	if u == nil {
		return nil, errors.New("remove equipment: nil unit")
	}
	e, ok := u.EquipmentByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEquipmentNotFound, id)
	}
	if e.IsGenerated() {
		return nil, fmt.Errorf("%w: %s", ErrGeneratedEquipment, e.ItemName)
	}

	current, list := s.snapshot(u)
	for _, loc := range models.Locations {
		row := current.Slots(loc)
		for _, i := range current.IndexOf(loc, id) {
			row[i] = models.EmptySlot()
		}
	}
	kept := list[:0]
	for _, entry := range list {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}

	s.log.Debug().Int64("unit", u.ID).Str("item", e.ItemName).Msg("equipment removed")
	return s.equipmentUpdate(u, current, kept)
}

func (s *Syncer) equipmentUpdate(u *models.UnitRecord, m models.SlotMap, list []models.EquipmentEntry) (*models.PartialUnitUpdate, error) {
	w, err := weights(s.tables, u.SystemComponents, u.Mass, list)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.EquipmentEntry{}
	}
	update := &models.PartialUnitUpdate{
		CriticalAllocations: m,
		Equipment:           list,
		Weights:             &w,
	}
	if s.mode == ModeLegacySlots {
		update.CriticalSlots = legacyNames(m, list, u.SystemComponents.HeatSinks.Type)
	}
	return update, nil
}
