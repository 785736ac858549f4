package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir builds a catalog from every .cue file in dir. Files contribute
// entries under a top-level `models` struct:
//
//	models: "res.partner": {
//		description: "Contact"
//		parent:      "parent_id"
//		refs: { "company_id": "res.company" }
//	}
//
// All files are unified into a single CUE value before decoding, so a model
// may be declared in one file and refined in another; conflicting values
// surface as unification errors.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("accessing catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning catalog directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	// Files are named explicitly so catalogs need no package clause or
	// cue.mod scaffolding: a directory of plain .cue files is enough.
	cuectx := cuecontext.New()
	instances := load.Instances(files, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuectx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	modelsVal := value.LookupPath(cue.ParsePath("models"))
	if !modelsVal.Exists() {
		return nil, fmt.Errorf("no models declared in %s (expected a top-level `models` struct)", dir)
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating models: %w", err)
	}

	cat := New()
	for iter.Next() {
		name := iter.Label()
		var schema ModelSchema
		if err := iter.Value().Decode(&schema); err != nil {
			return nil, fmt.Errorf("decoding model %q: %w", name, err)
		}
		if err := cat.Define(name, schema); err != nil {
			return nil, err
		}
	}
	if len(cat.Models()) == 0 {
		return nil, fmt.Errorf("catalog in %s declares no models", dir)
	}
	return cat, nil
}

// findCUEFiles returns all non-hidden .cue files directly under dir,
// relative to it and sorted for deterministic loading.
func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if filepath.Ext(e.Name()) == ".cue" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
