package types

import (
	"fmt"
	"strings"
)

// Category partitions allocations by subsystem so usage can be broken down
// and budgeted per concern. The set is closed; callers with their own
// taxonomy use CategoryCustom.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryEntities
	CategoryComponents
	CategorySystems
	CategoryGraphics
	CategoryAudio
	CategoryPhysics
	CategoryScripts
	CategoryAssets
	CategoryTemporary
	CategoryCache
	CategoryNetworking
	CategoryCustom

	categoryCount
)

// String implements the Stringer interface for Category
func (c Category) String() string {
	switch c {
	case CategoryUnknown:
		return "unknown"
	case CategoryEntities:
		return "entities"
	case CategoryComponents:
		return "components"
	case CategorySystems:
		return "systems"
	case CategoryGraphics:
		return "graphics"
	case CategoryAudio:
		return "audio"
	case CategoryPhysics:
		return "physics"
	case CategoryScripts:
		return "scripts"
	case CategoryAssets:
		return "assets"
	case CategoryTemporary:
		return "temporary"
	case CategoryCache:
		return "cache"
	case CategoryNetworking:
		return "networking"
	case CategoryCustom:
		return "custom"
	default:
		return fmt.Sprintf("CATEGORY_%d", uint8(c))
	}
}

// ParseCategory maps a name (case-insensitive) back to its Category.
// Unrecognized names map to CategoryUnknown with ok=false.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryUnknown; c < categoryCount; c++ {
		if strings.EqualFold(s, c.String()) {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// Categories returns all categories in enum order. The slice is freshly
// allocated; callers may modify it.
func Categories() []Category {
	out := make([]Category, 0, int(categoryCount))
	for c := CategoryUnknown; c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	return c < categoryCount
}
