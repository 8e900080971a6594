package models

import "strings"

type TechBase string

const (
	InnerSphere TechBase = "Inner Sphere"
	Clan        TechBase = "Clan"
	Mixed       TechBase = "Mixed"
)

// NormalizeTechBase maps the tech base spellings found in MTF files and user
// input ("IS", "Clan", "Mixed (IS Chassis)") onto the three canonical values.
func NormalizeTechBase(tb string) TechBase {
	lower := strings.ToLower(tb)
	if strings.Contains(lower, "mixed") {
		return Mixed
	}
	if strings.Contains(lower, "clan") {
		return Clan
	}
	return InnerSphere
}

// IsClan reports whether slot costs should use the Clan column.
// Mixed units are costed as Inner Sphere.
func (t TechBase) IsClan() bool {
	return t == Clan
}
