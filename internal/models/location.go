package models

import "strings"

// Location is a biped body location, keyed by its MTF abbreviation.
type Location string

const (
	Head        Location = "HD"
	CenterTorso Location = "CT"
	LeftTorso   Location = "LT"
	RightTorso  Location = "RT"
	LeftArm     Location = "LA"
	RightArm    Location = "RA"
	LeftLeg     Location = "LL"
	RightLeg    Location = "RL"
)

// Locations is the canonical location order used by every slot map.
var Locations = []Location{Head, CenterTorso, LeftTorso, RightTorso, LeftArm, RightArm, LeftLeg, RightLeg}

var locationCapacity = map[Location]int{
	Head: 6, CenterTorso: 12, LeftTorso: 12, RightTorso: 12,
	LeftArm: 12, RightArm: 12, LeftLeg: 6, RightLeg: 6,
}

var locationNames = map[Location]string{
	Head:        "Head",
	CenterTorso: "Center Torso",
	LeftTorso:   "Left Torso",
	RightTorso:  "Right Torso",
	LeftArm:     "Left Arm",
	RightArm:    "Right Arm",
	LeftLeg:     "Left Leg",
	RightLeg:    "Right Leg",
}

// Capacity returns the number of critical slots in the location, 0 if unknown.
func (l Location) Capacity() int {
	return locationCapacity[l]
}

// Name returns the long form used in MTF location headers.
func (l Location) Name() string {
	if n, ok := locationNames[l]; ok {
		return n
	}
	return string(l)
}

func (l Location) Valid() bool {
	_, ok := locationCapacity[l]
	return ok
}

// Index returns the position of l in Locations, or -1.
func (l Location) Index() int {
	for i, loc := range Locations {
		if loc == l {
			return i
		}
	}
	return -1
}

// LocationFromName accepts either the abbreviation ("LA") or the MTF header
// name ("Left Arm"), case-insensitively.
func LocationFromName(name string) (Location, bool) {
	n := strings.TrimSuffix(strings.TrimSpace(name), ":")
	for _, loc := range Locations {
		if strings.EqualFold(n, string(loc)) || strings.EqualFold(n, locationNames[loc]) {
			return loc, true
		}
	}
	return "", false
}
