package schema

import (
	"slices"
	"strings"
)

// DefaultFileTypes are the datapack file types a new block may create.
var DefaultFileTypes = []string{
	"advancements",
	"banner_pattern",
	"chat_type",
	"damage_type",
	"dimension",
	"dimension_type",
	"enchantment",
	"item_modifiers",
	"jukebox_song",
	"loot_tables",
	"painting_variant",
	"predicates",
	"recipes",
	"trim_material",
	"trim_pattern",
	"wolf_variant",
}

// Registry is the set of recognized file-type names. The zero value is empty.
type Registry struct {
	names map[string]struct{}
}

// NewRegistry returns a registry holding names. With no names it falls back
// to DefaultFileTypes.
func NewRegistry(names ...string) *Registry {
	if len(names) == 0 {
		names = DefaultFileTypes
	}
	r := &Registry{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			r.names[name] = struct{}{}
		}
	}
	return r
}

func (r *Registry) Contains(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[name]
	return ok
}

// Names returns the registered file types in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Singular turns a file-type name into the form used in schema file names,
// e.g. "loot_tables" becomes "loot_table".
func Singular(fileType string) string {
	return strings.TrimSuffix(fileType, "s")
}
