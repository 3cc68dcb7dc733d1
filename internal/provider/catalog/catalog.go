// Package catalog describes which models a provider serves.
package catalog

import (
	"slices"
	"strings"
)

// Catalog matches model names by exact name or by family prefix.
type Catalog struct {
	models   []string
	set      map[string]bool
	prefixes []string
}

// New creates a catalog of known models plus model family prefixes.
func New(models []string, prefixes ...string) *Catalog {
	return &Catalog{
		models:   slices.Clone(models),
		set:      buildModelSet(models),
		prefixes: slices.Clone(prefixes),
	}
}

// Models returns the known model names.
func (c *Catalog) Models() []string {
	return slices.Clone(c.models)
}

// Supports reports whether model is known or belongs to a known family.
func (c *Catalog) Supports(model string) bool {
	if c.set[model] {
		return true
	}
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// buildModelSet creates a map for O(1) lookup.
func buildModelSet(models []string) map[string]bool {
	set := make(map[string]bool, len(models))
	for _, model := range models {
		set[model] = true
	}
	return set
}
