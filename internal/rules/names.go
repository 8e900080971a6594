package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JustinWhittecar/mechforge/internal/models"
)

// ErrUnknownComponentType matches any *UnknownComponentTypeError via errors.Is.
var ErrUnknownComponentType = errors.New("unknown component type")

// UnknownComponentTypeError reports a structural value outside the tables.
type UnknownComponentTypeError struct {
	Field string
	Value string
}

func (e *UnknownComponentTypeError) Error() string {
	return fmt.Sprintf("unknown %s type %q", e.Field, e.Value)
}

func (e *UnknownComponentTypeError) Is(target error) bool {
	return target == ErrUnknownComponentType
}

func unknown(field, value string) error {
	return &UnknownComponentTypeError{Field: field, Value: value}
}

// componentTech lets a tech marker in the component name ("XL (Clan) Engine",
// "IS Double") override the unit's tech base, which mixed-tech units need.
func componentTech(name string, tb models.TechBase) models.TechBase {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "clan") || strings.HasPrefix(n, "cl "):
		return models.Clan
	case strings.Contains(n, "(is)") || strings.HasPrefix(n, "is ") ||
		strings.Contains(n, "inner sphere"):
		return models.InnerSphere
	}
	return tb
}

// stripTech removes tech and MTF decorations so "IS Endo-Steel" and
// "Endo Steel" compare equal.
func stripTech(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range []string{"(inner sphere)", "(is)", "(clan)", "inner sphere", "clan"} {
		n = strings.ReplaceAll(n, s, "")
	}
	n = strings.TrimPrefix(strings.TrimSpace(n), "is ")
	n = strings.TrimPrefix(n, "cl ")
	n = strings.ReplaceAll(n, "-", " ")
	return strings.Join(strings.Fields(n), " ")
}

func exactKey[V any](m map[string]V, name string) (string, bool) {
	want := stripTech(name)
	for k := range m {
		if stripTech(k) == want {
			return k, true
		}
	}
	return "", false
}

func present[V any](m map[string]V, key string) (string, bool) {
	_, ok := m[key]
	return key, ok
}

// CanonicalEngine resolves "XL Fusion Engine(IS)", "Fusion Engine", "xl" etc.
func (t *Tables) CanonicalEngine(name string) (string, error) {
	if k, ok := exactKey(t.Engines, name); ok {
		return k, nil
	}
	n := stripTech(name)
	n = strings.TrimSpace(strings.TrimSuffix(n, "engine"))
	n = strings.TrimSpace(strings.TrimSuffix(n, "fusion"))
	var key string
	switch {
	case n == "":
		if strings.Contains(strings.ToLower(name), "fusion") {
			key = "Standard"
		}
	case strings.Contains(n, "xxl"):
		key = "XXL"
	case strings.Contains(n, "xl"):
		key = "XL"
	case strings.Contains(n, "light"):
		key = "Light"
	case strings.Contains(n, "compact"):
		key = "Compact"
	case n == "standard" || strings.HasPrefix(n, "standard "):
		key = "Standard"
	}
	if k, ok := present(t.Engines, key); ok && key != "" {
		return k, nil
	}
	return "", unknown("engine", name)
}

// CanonicalGyro resolves "Heavy Duty Gyro", "XL Gyro", "Standard Gyro" etc.
func (t *Tables) CanonicalGyro(name string) (string, error) {
	if k, ok := exactKey(t.Gyros, name); ok {
		return k, nil
	}
	n := strings.TrimSpace(strings.TrimSuffix(stripTech(name), "gyro"))
	var key string
	switch {
	case strings.Contains(n, "heavy duty"):
		key = "Heavy-Duty"
	case n == "xl" || n == "extra light":
		key = "XL"
	case n == "compact":
		key = "Compact"
	case n == "standard":
		key = "Standard"
	}
	if k, ok := present(t.Gyros, key); ok && key != "" {
		return k, nil
	}
	return "", unknown("gyro", name)
}

// CanonicalStructure resolves "IS Endo Steel", "Endo-Steel", "IS Standard" etc.
func (t *Tables) CanonicalStructure(name string) (string, error) {
	if k, ok := exactKey(t.Structures, name); ok {
		return k, nil
	}
	n := stripTech(name)
	var key string
	switch {
	case strings.Contains(n, "endo composite"):
		key = ""
	case strings.Contains(n, "endo"):
		key = "Endo Steel"
	case n == "standard":
		key = "Standard"
	}
	if k, ok := present(t.Structures, key); ok && key != "" {
		return k, nil
	}
	return "", unknown("structure", name)
}

// CanonicalHeatSink resolves "IS Double", "Double (Clan)", "Single" etc.
func (t *Tables) CanonicalHeatSink(name string) (string, error) {
	if k, ok := exactKey(t.HeatSinks, name); ok {
		return k, nil
	}
	n := stripTech(name)
	n = strings.TrimSpace(strings.TrimSuffix(n, "heat sinks"))
	n = strings.TrimSpace(strings.TrimSuffix(n, "heat sink"))
	var key string
	switch {
	case n == "double":
		key = "Double"
	case n == "single" || n == "standard":
		key = "Single"
	}
	if k, ok := present(t.HeatSinks, key); ok && key != "" {
		return k, nil
	}
	return "", unknown("heat sink", name)
}
