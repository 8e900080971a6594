package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

// LoadFile reads a YAML catalog and layers it over the built-in tables.
// Entries in the file replace built-in entries of the same name; entries not
// mentioned keep their built-in values.
func LoadFile(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(raw)
}

// Parse layers a YAML catalog document over the built-in tables.
func Parse(raw []byte) (*Tables, error) {
	t := Builtin()
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every spread names real locations and fits them.
func (t *Tables) Validate() error {
	check := func(table, name string, s SlotSpread) error {
		for loc, n := range s {
			if !loc.Valid() {
				return fmt.Errorf("%s %q: unknown location %q", table, name, loc)
			}
			if n < 0 || n > loc.Capacity() {
				return fmt.Errorf("%s %q: %d slots in %s exceeds capacity %d", table, name, n, loc, loc.Capacity())
			}
		}
		return nil
	}
	for name, r := range t.Engines {
		if err := check("engine", name, r.InnerSphere); err != nil {
			return err
		}
		if err := check("engine", name, r.Clan); err != nil {
			return err
		}
	}
	for name, r := range t.Structures {
		if err := check("structure", name, r.InnerSphere); err != nil {
			return err
		}
		if err := check("structure", name, r.Clan); err != nil {
			return err
		}
	}
	for name, r := range t.Gyros {
		if r.Slots < 0 || r.Slots > models.CenterTorso.Capacity() {
			return fmt.Errorf("gyro %q: %d slots exceeds Center Torso capacity", name, r.Slots)
		}
	}
	for name, r := range t.HeatSinks {
		if r.InnerSphereSlots <= 0 {
			return fmt.Errorf("heat sink %q: inner_sphere_slots must be positive", name)
		}
	}
	for name, r := range t.Equipment {
		if r.Crits <= 0 || r.Crits > models.CenterTorso.Capacity() || r.Tons < 0 {
			return fmt.Errorf("equipment %q: %d slots, %.1f tons is not a valid size", name, r.Crits, r.Tons)
		}
	}
	if len(t.HeatSinkPlacement) == 0 {
		return fmt.Errorf("heat_sink_placement must name at least one location")
	}
	for _, loc := range t.HeatSinkPlacement {
		if !loc.Valid() {
			return fmt.Errorf("heat_sink_placement: unknown location %q", loc)
		}
	}
	return nil
}
