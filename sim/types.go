package sim

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strconv"
)

// MaxTypes bounds the number of particle types a simulation can carry.
const MaxTypes = 16

// ErrInvalidTypes is returned when a TypeTable fails validation.
var ErrInvalidTypes = errors.New("invalid type table")

// TypeID indexes into a TypeTable.
type TypeID uint8

// TypeTable is the fixed set of particle types a Simulation is built with.
// Changing the set means constructing a new Simulation.
type TypeTable struct {
	Names  []string
	Colors []string
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// NewTypeTable returns a table of n types named "0".."n-1" without colors.
func NewTypeTable(n int) TypeTable {
	names := make([]string, n)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return TypeTable{Names: names}
}

// Len returns the number of types.
func (t TypeTable) Len() int {
	return len(t.Names)
}

// Validate checks names are unique and non-empty and colors are well formed.
func (t TypeTable) Validate() error {
	if len(t.Names) == 0 || len(t.Names) > MaxTypes {
		return fmt.Errorf("%w: %d types, want 1..%d", ErrInvalidTypes, len(t.Names), MaxTypes)
	}
	if len(t.Colors) != 0 && len(t.Colors) != len(t.Names) {
		return fmt.Errorf("%w: %d colors for %d types", ErrInvalidTypes, len(t.Colors), len(t.Names))
	}
	seen := make(map[string]struct{}, len(t.Names))
	for i, name := range t.Names {
		if name == "" {
			return fmt.Errorf("%w: type %d has an empty name", ErrInvalidTypes, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate type name %q", ErrInvalidTypes, name)
		}
		seen[name] = struct{}{}
	}
	for i, c := range t.Colors {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("%w: type %d color %q is not #rrggbb", ErrInvalidTypes, i, c)
		}
	}
	return nil
}

// Lookup resolves a type by name, falling back to a decimal index.
func (t TypeTable) Lookup(name string) (TypeID, bool) {
	for i, n := range t.Names {
		if n == name {
			return TypeID(i), true
		}
	}
	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < len(t.Names) {
		return TypeID(idx), true
	}
	return 0, false
}

// Name returns the name of a type, or its index when out of range.
func (t TypeTable) Name(id TypeID) string {
	if int(id) < len(t.Names) {
		return t.Names[id]
	}
	return strconv.Itoa(int(id))
}

// Color returns the display color of a type. Types without a configured color
// get an evenly spaced hue.
func (t TypeTable) Color(id TypeID) color.RGBA {
	if int(id) < len(t.Colors) && hexColor.MatchString(t.Colors[id]) {
		if v, err := strconv.ParseUint(t.Colors[id][1:], 16, 32); err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
		}
	}
	n := max(len(t.Names), 1)
	r, g, b := hsvToRGB(float64(id)/float64(n)*360, 0.8, 1)
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
