package ingestion

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

// MTFData holds the parts of a MegaMek .mtf file the editor imports.
type MTFData struct {
	Chassis  string
	Model    string
	Config   string
	TechBase string
	Year     int
	Role     string

	Mass         int
	EngineRating int
	EngineType   string
	Structure    string
	Gyro         string

	HeatSinkCount int
	HeatSinkType  string

	WalkMP int
	JumpMP int

	// Weapons summary block, used to tell weapons from other equipment.
	Weapons []WeaponEntry

	// Crit slot names per location block, as written.
	LocationEquipment map[models.Location][]string

	Overview string
}

// WeaponEntry is a weapon from the Weapons:N summary block.
type WeaponEntry struct {
	Name     string
	Location string
}

// ParseMTF reads a MegaMek .mtf file from disk.
func ParseMTF(path string) (*MTFData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mtf: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads MTF text. Unknown keys are ignored; a missing chassis is an error.
func Parse(r io.Reader) (*MTFData, error) {
	data := &MTFData{
		LocationEquipment: make(map[models.Location][]string),
	}

	scanner := bufio.NewScanner(r)
	// lore lines can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentLocation models.Location
	var inWeapons bool

	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lower := strings.ToLower(trimmed)

		if loc, ok := matchLocationHeader(trimmed); ok {
			currentLocation = loc
			inWeapons = false
			continue
		}

		if strings.HasPrefix(lower, "weapons:") {
			inWeapons = true
			currentLocation = ""
			continue
		}

		if currentLocation != "" {
			if len(data.LocationEquipment[currentLocation]) < currentLocation.Capacity() {
				data.LocationEquipment[currentLocation] = append(data.LocationEquipment[currentLocation], trimmed)
				continue
			}
			// a full location block ends at its capacity
			currentLocation = ""
		}

		if inWeapons {
			if parts := strings.SplitN(trimmed, ",", 2); len(parts) == 2 {
				data.Weapons = append(data.Weapons, WeaponEntry{
					Name:     strings.TrimSpace(parts[0]),
					Location: strings.TrimSpace(parts[1]),
				})
				continue
			}
			inWeapons = false
		}

		idx := strings.Index(trimmed, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(trimmed[:idx]))
		val := strings.TrimSpace(trimmed[idx+1:])

		switch key {
		case "chassis":
			data.Chassis = val
		case "model":
			data.Model = val
		case "config":
			data.Config = val
		case "techbase":
			data.TechBase = val
		case "era":
			data.Year, _ = strconv.Atoi(val)
		case "role":
			data.Role = val
		case "mass":
			data.Mass, _ = strconv.Atoi(val)
		case "engine":
			data.EngineRating, data.EngineType = parseEngine(val)
		case "structure":
			data.Structure = val
		case "gyro":
			data.Gyro = val
		case "heat sinks":
			data.HeatSinkCount, data.HeatSinkType = parseHeatSinks(val)
		case "walk mp":
			data.WalkMP, _ = strconv.Atoi(val)
		case "jump mp":
			data.JumpMP, _ = strconv.Atoi(val)
		case "overview":
			data.Overview = val
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mtf: %w", err)
	}
	if data.Chassis == "" {
		return nil, fmt.Errorf("missing chassis field")
	}
	return data, nil
}

// matchLocationHeader recognises biped location headers like "Left Arm:".
// Quad and LAM locations are not supported by the slot model.
func matchLocationHeader(line string) (models.Location, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	return models.LocationFromName(line)
}

// parseEngine parses "300 Fusion Engine(IS)" -> (300, "Fusion Engine(IS)")
func parseEngine(val string) (int, string) {
	parts := strings.SplitN(val, " ", 2)
	if len(parts) < 2 {
		rating, _ := strconv.Atoi(val)
		return rating, ""
	}
	rating, _ := strconv.Atoi(parts[0])
	return rating, strings.TrimSpace(parts[1])
}

// parseHeatSinks parses "14 IS Double" -> (14, "IS Double")
func parseHeatSinks(val string) (int, string) {
	parts := strings.SplitN(val, " ", 2)
	if len(parts) < 2 {
		count, _ := strconv.Atoi(val)
		return count, "Single"
	}
	count, _ := strconv.Atoi(parts[0])
	return count, strings.TrimSpace(parts[1])
}

// FullName returns "Chassis Model" or just "Chassis" if model is empty.
func (d *MTFData) FullName() string {
	if d.Model == "" {
		return d.Chassis
	}
	return d.Chassis + " " + d.Model
}

// eraFromYear buckets an introduction year into the setting's eras.
func eraFromYear(year int) string {
	if year <= 0 {
		return ""
	}
	switch {
	case year <= 2570:
		return "Age of War"
	case year <= 2780:
		return "Star League"
	case year <= 2900:
		return "Early Succession Wars"
	case year <= 3049:
		return "Late Succession Wars"
	case year <= 3061:
		return "Clan Invasion"
	case year <= 3067:
		return "Civil War"
	case year <= 3081:
		return "Jihad"
	case year <= 3150:
		return "Dark Age"
	default:
		return "ilClan"
	}
}
