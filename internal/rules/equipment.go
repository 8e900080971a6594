package rules

import (
	"strings"
	"unicode"
)

// EquipmentRule is the catalog entry for a user item. Aliases are extra
// spellings seen in MTF files ("ISLBXAC10").
type EquipmentRule struct {
	Tons    float64  `yaml:"tons" json:"tons"`
	Crits   int      `yaml:"crits" json:"crits"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// ammoRule covers every ammunition bin: one slot, one ton.
var ammoRule = EquipmentRule{Tons: 1, Crits: 1}

func builtinEquipment() map[string]EquipmentRule {
	return map[string]EquipmentRule{
		"Small Laser":         {Tons: 0.5, Crits: 1},
		"Medium Laser":        {Tons: 1, Crits: 1},
		"Large Laser":         {Tons: 5, Crits: 2},
		"ER Small Laser":      {Tons: 0.5, Crits: 1},
		"ER Medium Laser":     {Tons: 1, Crits: 1},
		"ER Large Laser":      {Tons: 5, Crits: 2},
		"Small Pulse Laser":   {Tons: 1, Crits: 1},
		"Medium Pulse Laser":  {Tons: 2, Crits: 1},
		"Large Pulse Laser":   {Tons: 7, Crits: 2},
		"PPC":                 {Tons: 7, Crits: 3, Aliases: []string{"Particle Cannon"}},
		"ER PPC":              {Tons: 7, Crits: 3},
		"Flamer":              {Tons: 1, Crits: 1},
		"Machine Gun":         {Tons: 0.5, Crits: 1},
		"AC/2":                {Tons: 6, Crits: 1, Aliases: []string{"Autocannon/2"}},
		"AC/5":                {Tons: 8, Crits: 4, Aliases: []string{"Autocannon/5"}},
		"AC/10":               {Tons: 12, Crits: 7, Aliases: []string{"Autocannon/10"}},
		"AC/20":               {Tons: 14, Crits: 10, Aliases: []string{"Autocannon/20"}},
		"Ultra AC/5":          {Tons: 9, Crits: 5, Aliases: []string{"ISUltraAC5"}},
		"LB 10-X AC":          {Tons: 11, Crits: 6, Aliases: []string{"ISLBXAC10"}},
		"Gauss Rifle":         {Tons: 15, Crits: 7},
		"LRM 5":               {Tons: 2, Crits: 1},
		"LRM 10":              {Tons: 5, Crits: 2},
		"LRM 15":              {Tons: 7, Crits: 3},
		"LRM 20":              {Tons: 10, Crits: 5},
		"SRM 2":               {Tons: 1, Crits: 1},
		"SRM 4":               {Tons: 2, Crits: 1},
		"SRM 6":               {Tons: 3, Crits: 2},
		"Streak SRM 2":        {Tons: 1.5, Crits: 1},
		"Anti-Missile System": {Tons: 0.5, Crits: 1, Aliases: []string{"AMS"}},
		"CASE":                {Tons: 0.5, Crits: 1},
	}
}

// equipmentKey folds a name to lower-case letters and digits without a
// leading IS/CL tech prefix, so "ISERMediumLaser" matches "ER Medium Laser".
func equipmentKey(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "(R)"))
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	k := b.String()
	for _, p := range []string{"is", "cl"} {
		if strings.HasPrefix(k, p) && len(k) > len(p) {
			return strings.TrimPrefix(k, p)
		}
	}
	return k
}

// LookupEquipment finds the catalog entry for an item name as written in
// an MTF slot list. Any name mentioning ammo is an ammunition bin.
func (t *Tables) LookupEquipment(name string) (EquipmentRule, bool) {
	if t == nil {
		return EquipmentRule{}, false
	}
	if strings.Contains(strings.ToLower(name), "ammo") {
		return ammoRule, true
	}
	want := equipmentKey(name)
	if want == "" {
		return EquipmentRule{}, false
	}
	for k, r := range t.Equipment {
		if equipmentKey(k) == want {
			return r, true
		}
		for _, a := range r.Aliases {
			if equipmentKey(a) == want {
				return r, true
			}
		}
	}
	return EquipmentRule{}, false
}
