package componentsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

func TestPlaceEquipment(t *testing.T) {
	s := newSyncer(ModeAllocations)
	u := baseUnit(t, s)
	before := u.Clone()

	update, err := s.PlaceEquipment(u, models.EquipmentEntry{
		ID: "ml-1", ItemName: "Medium Laser", ItemType: "weapon", Tons: 1, Crits: 1,
	}, models.RightArm, 7)
	require.NoError(t, err)

	assert.Nil(t, update.SystemComponents)
	assert.Equal(t, models.EquipmentSlot("ml-1"), update.CriticalAllocations.Slots(models.RightArm)[7])
	require.Len(t, update.Equipment, 2)
	assert.Equal(t, models.RightArm, update.Equipment[1].Location)
	assert.Equal(t, 8.0, update.Weights.Equipment)

	// the caller's unit is untouched
	assert.True(t, before.CriticalAllocations.Equal(u.CriticalAllocations))
	assert.Len(t, u.Equipment, 1)
}

func TestPlaceEquipmentErrors(t *testing.T) {
	s := newSyncer(ModeAllocations)
	u := baseUnit(t, s)

	tests := []struct {
		name  string
		item  models.EquipmentEntry
		loc   models.Location
		start int
		want  error
	}{
		{"occupied by PPC", models.EquipmentEntry{ItemName: "AC/5", Crits: 4}, models.RightArm, 5, ErrSlotOccupied},
		{"locked actuator", models.EquipmentEntry{ItemName: "Small Laser", Crits: 1}, models.RightArm, 0, ErrSlotOccupied},
		{"past the end", models.EquipmentEntry{ItemName: "AC/5", Crits: 4}, models.LeftArm, 10, ErrInvalidValue},
		{"unknown location", models.EquipmentEntry{ItemName: "AC/5", Crits: 4}, "Tail", 0, ErrInvalidValue},
		{"no name", models.EquipmentEntry{Crits: 1}, models.LeftArm, 4, ErrInvalidValue},
		{"duplicate id", models.EquipmentEntry{ID: "ppc-1", ItemName: "PPC", Crits: 3}, models.LeftArm, 4, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.PlaceEquipment(u, tt.item, tt.loc, tt.start)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRemoveEquipment(t *testing.T) {
	s := newSyncer(ModeAllocations)
	u := baseUnit(t, s)

	update, err := s.RemoveEquipment(u, "ppc-1")
	require.NoError(t, err)
	ra := update.CriticalAllocations.Slots(models.RightArm)
	for i := 4; i < 7; i++ {
		assert.True(t, ra[i].IsEmpty())
	}
	assert.NotNil(t, update.Equipment)
	assert.Empty(t, update.Equipment)
	assert.Equal(t, 0.0, update.Weights.Equipment)

	_, err = s.RemoveEquipment(u, "nope")
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
}

func TestRemoveGeneratedEquipmentRefused(t *testing.T) {
	s := newSyncer(ModeAllocations)
	u := baseUnit(t, s)
	update, err := s.HeatSinkChange(u, "Single", 14)
	require.NoError(t, err)
	u.Apply(update)

	var id string
	for _, e := range u.Equipment {
		if e.IsGenerated() {
			id = e.ID
		}
	}
	require.NotEmpty(t, id)
	_, err = s.RemoveEquipment(u, id)
	assert.ErrorIs(t, err, ErrGeneratedEquipment)
}

func TestPlaceEquipmentLegacyMode(t *testing.T) {
	s := newSyncer(ModeLegacySlots)
	u := baseUnit(t, s)

	update, err := s.PlaceEquipment(u, models.EquipmentEntry{ItemName: "Medium Laser", ItemType: "weapon", Tons: 1, Crits: 1}, models.LeftArm, 4)
	require.NoError(t, err)
	require.NotNil(t, update.CriticalSlots)
	assert.Equal(t, "Medium Laser", update.CriticalSlots[models.LeftArm][4])
}
