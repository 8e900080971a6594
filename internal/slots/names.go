package slots

import (
	"strings"

	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
)

const emptyName = "-Empty-"

var lockedNames = []string{
	"life support", "sensors", "cockpit",
	"shoulder", "upper arm actuator", "lower arm actuator", "hand actuator",
	"hip", "upper leg actuator", "lower leg actuator", "foot actuator",
}

// Classify maps a crit slot name as written in MTF location blocks to a
// slot kind. Equipment slots come back with an empty Ref.
func Classify(name string) models.Slot {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "" || n == strings.ToLower(emptyName):
		return models.EmptySlot()
	case strings.Contains(n, "engine"):
		return models.FixedSlot(models.CategoryEngine)
	case strings.Contains(n, "gyro"):
		return models.FixedSlot(models.CategoryGyro)
	case strings.Contains(n, "endo"):
		return models.FixedSlot(models.CategoryStructure)
	case strings.Contains(n, "heat sink") || strings.Contains(n, "heatsink"):
		return models.FixedSlot(models.CategoryHeatSink)
	}
	for _, l := range lockedNames {
		if n == l {
			return models.LockedSlot(strings.TrimSpace(name))
		}
	}
	return models.EquipmentSlot("")
}

// FromNames builds a slot map from MTF-style per-location name lists.
// Consecutive slots with the same name form one item, up to that item's size:
// the crits of the matched entry, else the catalog size from t. Items of
// unknown size take the whole run. Each item is matched to an unused entry
// of equipment with that name and location, or a new entry is appended.
// Locations missing from names keep the default biped layout.
func FromNames(names map[models.Location][]string, equipment []models.EquipmentEntry, t *rules.Tables) (models.SlotMap, []models.EquipmentEntry) {
	m := models.NewSlotMap()
	out := append([]models.EquipmentEntry(nil), equipment...)
	used := map[string]bool{}

	for _, loc := range models.Locations {
		list, ok := names[loc]
		if !ok {
			continue
		}
		slots := make([]models.Slot, loc.Capacity())
		var (
			runName string
			runRef  string
			runLen  int
			runCap  int
		)
		for i := range slots {
			name := ""
			if i < len(list) {
				name = strings.TrimSpace(list[i])
			}
			s := Classify(name)
			if s.Kind != models.SlotEquipment {
				slots[i] = s
				runName = ""
				continue
			}
			item := strings.TrimSuffix(name, " (R)")
			if item != runName || (runCap > 0 && runLen >= runCap) {
				runName = item
				runLen = 0
				runRef = ""
				runCap = 0
				for j := range out {
					e := out[j]
					if !used[e.ID] && !e.IsGenerated() && e.ItemName == item && (e.Location == loc || e.Location == "") {
						runRef = e.ID
						runCap = e.Crits
						used[e.ID] = true
						if out[j].Location == "" {
							out[j].Location = loc
						}
						break
					}
				}
				rule, known := t.LookupEquipment(item)
				if runCap == 0 && known {
					runCap = rule.Crits
				}
				if runRef == "" {
					e := models.EquipmentEntry{
						ID:       models.NewEquipmentID(),
						ItemName: item,
						ItemType: "equipment",
						Location: loc,
						Tons:     rule.Tons,
					}
					out = append(out, e)
					used[e.ID] = true
					runRef = e.ID
				}
			}
			runLen++
			slots[i] = models.EquipmentSlot(runRef)
			for j := range out {
				if out[j].ID == runRef && out[j].Crits < runLen {
					out[j].Crits = runLen
				}
			}
		}
		m.Set(loc, slots)
	}
	return m, out
}

// ToNames renders m as MTF-style name lists. labels gives the text for each
// fixed category; missing labels fall back to Category.Label.
func ToNames(m models.SlotMap, equipment []models.EquipmentEntry, labels map[models.Category]string) map[models.Location][]string {
	byID := make(map[string]string, len(equipment))
	for _, e := range equipment {
		byID[e.ID] = e.ItemName
	}
	out := make(map[models.Location][]string, len(m))
	for _, ls := range m {
		names := make([]string, len(ls.Slots))
		for i, s := range ls.Slots {
			switch s.Kind {
			case models.SlotFixed:
				if l, ok := labels[s.Category]; ok && l != "" {
					names[i] = l
				} else {
					names[i] = s.Category.Label()
				}
			case models.SlotLocked:
				names[i] = s.Label
			case models.SlotEquipment:
				if n, ok := byID[s.Ref]; ok {
					names[i] = n
				} else {
					names[i] = s.Ref
				}
			default:
				names[i] = emptyName
			}
		}
		out[ls.Location] = names
	}
	return out
}
