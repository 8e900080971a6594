package slots

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

func standardReqs() Requirements {
	var r Requirements
	r = r.Add(models.CategoryEngine, map[models.Location]int{models.CenterTorso: 6})
	r = r.Add(models.CategoryGyro, map[models.Location]int{models.CenterTorso: 4})
	return r
}

func xlReqs() Requirements {
	var r Requirements
	r = r.Add(models.CategoryEngine, map[models.Location]int{models.CenterTorso: 6, models.LeftTorso: 3, models.RightTorso: 3})
	r = r.Add(models.CategoryGyro, map[models.Location]int{models.CenterTorso: 4})
	return r
}

func place(t *testing.T, m models.SlotMap, loc models.Location, ref string, idx ...int) {
	t.Helper()
	slots := m.Slots(loc)
	require.NotNil(t, slots)
	for _, i := range idx {
		require.True(t, slots[i].IsEmpty(), "slot %s[%d] already used", loc, i)
		slots[i] = models.EquipmentSlot(ref)
	}
}

func kinds(slots []models.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		switch s.Kind {
		case models.SlotFixed:
			out[i] = string(s.Category)
		case models.SlotEquipment:
			out[i] = "eq:" + s.Ref
		case models.SlotLocked:
			out[i] = "locked"
		default:
			out[i] = "-"
		}
	}
	return out
}

func TestReallocate_FromEmpty(t *testing.T) {
	m, err := Reallocate(models.NewSlotMap(), nil, standardReqs())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"engine", "engine", "engine", "engine", "engine", "engine",
		"gyro", "gyro", "gyro", "gyro", "-", "-",
	}, kinds(m.Slots(models.CenterTorso)))
	assert.Equal(t, 0, m.Occupied(models.LeftTorso))
}

func TestReallocate_StandardToXL(t *testing.T) {
	base, err := Reallocate(models.NewSlotMap(), nil, standardReqs())
	require.NoError(t, err)
	place(t, base, models.LeftTorso, "srm", 0, 1)
	place(t, base, models.RightArm, "ppc", 4, 5, 6)

	m, err := Reallocate(base, standardReqs(), xlReqs())
	require.NoError(t, err)

	assert.Equal(t, 6, m.FixedCount(models.CenterTorso, models.CategoryEngine))
	assert.Equal(t, 3, m.FixedCount(models.LeftTorso, models.CategoryEngine))
	assert.Equal(t, 3, m.FixedCount(models.RightTorso, models.CategoryEngine))

	// user equipment keeps its indexes, engine fills the first empty slots after it
	assert.Equal(t, []int{0, 1}, m.IndexOf(models.LeftTorso, "srm"))
	assert.Equal(t, []string{"eq:srm", "eq:srm", "engine", "engine", "engine"}, kinds(m.Slots(models.LeftTorso))[:5])

	// untouched location is identical
	assert.Equal(t, base.Slots(models.RightArm), m.Slots(models.RightArm))

	// input map is not modified
	assert.Equal(t, 0, base.FixedCount(models.LeftTorso, models.CategoryEngine))
}

func TestReallocate_XLToStandardFreesSideTorsos(t *testing.T) {
	m, err := Reallocate(models.NewSlotMap(), nil, xlReqs())
	require.NoError(t, err)
	place(t, m, models.LeftTorso, "ams", 5)

	back, err := Reallocate(m, xlReqs(), standardReqs())
	require.NoError(t, err)
	assert.Equal(t, 0, back.FixedCount(models.LeftTorso, models.CategoryEngine))
	assert.Equal(t, 0, back.FixedCount(models.RightTorso, models.CategoryEngine))
	assert.Equal(t, []int{5}, back.IndexOf(models.LeftTorso, "ams"))
	assert.Equal(t, 1, back.Occupied(models.LeftTorso))
}

func TestReallocate_InsufficientSlots(t *testing.T) {
	base, err := Reallocate(models.NewSlotMap(), nil, standardReqs())
	require.NoError(t, err)
	place(t, base, models.RightTorso, "ac20", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	_, err = Reallocate(base, standardReqs(), xlReqs())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientSlots))

	var ierr *InsufficientSlotsError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, models.RightTorso, ierr.Location)
	assert.Equal(t, 3, ierr.Required)
	assert.Equal(t, 2, ierr.Available)
	assert.Contains(t, err.Error(), "Right Torso")
}

func TestReallocate_Idempotent(t *testing.T) {
	m, err := Reallocate(models.NewSlotMap(), nil, xlReqs())
	require.NoError(t, err)
	place(t, m, models.LeftArm, "laser", 4)

	again, err := Reallocate(m, xlReqs(), xlReqs())
	require.NoError(t, err)
	assert.True(t, m.Equal(again))
}

func TestReallocate_CategoryOrderWithinLocation(t *testing.T) {
	var r Requirements
	r = r.Add(models.CategoryHeatSink, map[models.Location]int{models.LeftTorso: 2})
	r = r.Add(models.CategoryStructure, map[models.Location]int{models.LeftTorso: 1})
	r = r.Add(models.CategoryEngine, map[models.Location]int{models.LeftTorso: 3})

	m, err := Reallocate(models.NewSlotMap(), nil, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine", "engine", "engine", "structure", "heat_sink", "heat_sink", "-"},
		kinds(m.Slots(models.LeftTorso))[:7])
}

func TestReallocate_NeverTouchesLockedSlots(t *testing.T) {
	var r Requirements
	r = r.Add(models.CategoryStructure, map[models.Location]int{models.LeftLeg: 2})

	m, err := Reallocate(models.NewSlotMap(), nil, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"locked", "locked", "locked", "locked", "structure", "structure"},
		kinds(m.Slots(models.LeftLeg)))

	r = r.Add(models.CategoryHeatSink, map[models.Location]int{models.LeftLeg: 1})
	_, err = Reallocate(m, nil, r)
	assert.ErrorIs(t, err, ErrInsufficientSlots)
}

func TestReallocate_GyroChangeLeavesEngineMarkersAlone(t *testing.T) {
	m, err := Reallocate(models.NewSlotMap(), nil, standardReqs())
	require.NoError(t, err)

	var xlGyro Requirements
	xlGyro = xlGyro.Add(models.CategoryEngine, map[models.Location]int{models.CenterTorso: 6})
	xlGyro = xlGyro.Add(models.CategoryGyro, map[models.Location]int{models.CenterTorso: 6})

	out, err := Reallocate(m, standardReqs(), xlGyro)
	require.NoError(t, err)
	assert.Equal(t, 6, out.FixedCount(models.CenterTorso, models.CategoryEngine))
	assert.Equal(t, 6, out.FixedCount(models.CenterTorso, models.CategoryGyro))
	assert.Equal(t, 12, out.Occupied(models.CenterTorso))
}

func TestCurrent(t *testing.T) {
	m, err := Reallocate(models.NewSlotMap(), nil, xlReqs())
	require.NoError(t, err)
	got := Current(m)
	assert.Equal(t, xlReqs().Spread(), got.Spread())
	assert.Equal(t, 6, got.For(models.CenterTorso)[models.CategoryEngine])
	assert.Equal(t, 4, got.For(models.CenterTorso)[models.CategoryGyro])
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(models.NewSlotMap()))

	bad := models.NewSlotMap()
	bad.Set(models.Head, make([]models.Slot, 7))
	assert.Error(t, Check(bad))
}
