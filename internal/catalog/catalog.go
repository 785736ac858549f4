// Package catalog answers the one schema question the loader needs: which
// fields on which models reference which other models. It also carries the
// per-model parent field that turns a flat table into a tree hierarchy.
//
// Catalogs are built once per run, either programmatically (tests,
// embedders) or from a directory of CUE files (see LoadDir), and are
// read-only afterwards.
package catalog

import (
	"fmt"
	"sort"
)

// ModelSchema declares the reference structure of one model.
type ModelSchema struct {
	// Description is a human label used in log output only.
	Description string `json:"description,omitempty"`
	// Parent names the field that makes this model hierarchical. Empty
	// for flat models.
	Parent string `json:"parent,omitempty"`
	// Refs maps field names to the model their values reference.
	Refs map[string]string `json:"refs,omitempty"`
}

// Dependency is one schema-level edge: a field on FromModel whose values
// reference records of ToModel.
type Dependency struct {
	FromModel string
	ToModel   string
	ViaField  string
}

// Catalog is a read-only lookup table over model schemas.
type Catalog struct {
	models map[string]ModelSchema
	order  []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{models: make(map[string]ModelSchema)}
}

// Define adds one model schema. The parent field may appear in Refs only
// when it targets the model itself: a parent column pointing at another
// model would be cross-model nesting, which the loader rejects wholesale.
func (c *Catalog) Define(name string, schema ModelSchema) error {
	if name == "" {
		return fmt.Errorf("define model: empty model name")
	}
	if _, ok := c.models[name]; ok {
		return fmt.Errorf("define model %q: already defined", name)
	}
	if schema.Parent != "" {
		if target, ok := schema.Refs[schema.Parent]; ok && target != name {
			return fmt.Errorf("define model %q: parent field %q references %q; a hierarchy must stay within its own model",
				name, schema.Parent, target)
		}
	}
	c.models[name] = schema
	c.order = append(c.order, name)
	return nil
}

// Has reports whether the catalog knows the model.
func (c *Catalog) Has(model string) bool {
	_, ok := c.models[model]
	return ok
}

// Models returns all defined model names in declaration order.
func (c *Catalog) Models() []string {
	return c.order
}

// Describe returns the model's human label, falling back to its name.
func (c *Catalog) Describe(model string) string {
	if s, ok := c.models[model]; ok && s.Description != "" {
		return s.Description
	}
	return model
}

// FieldReferencesModel reports whether the field on the model is a
// reference, and if so, which model it points at.
func (c *Catalog) FieldReferencesModel(model, field string) (string, bool) {
	s, ok := c.models[model]
	if !ok {
		return "", false
	}
	target, ok := s.Refs[field]
	return target, ok
}

// ParentField returns the model's hierarchy field, if it has one.
func (c *Catalog) ParentField(model string) (string, bool) {
	s, ok := c.models[model]
	if !ok || s.Parent == "" {
		return "", false
	}
	return s.Parent, true
}

// Dependencies returns every declared model-level edge between two distinct
// catalog models. Self-references are record-level concerns and are not
// emitted. Order is deterministic: models in declaration order, fields
// sorted by name.
func (c *Catalog) Dependencies() []Dependency {
	var deps []Dependency
	for _, name := range c.order {
		s := c.models[name]
		fields := make([]string, 0, len(s.Refs))
		for f := range s.Refs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			target := s.Refs[f]
			if target == name || !c.Has(target) {
				continue
			}
			deps = append(deps, Dependency{FromModel: name, ToModel: target, ViaField: f})
		}
	}
	return deps
}
