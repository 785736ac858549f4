package cli

import (
	"context"
	"fmt"

	"github.com/soward/depload/internal/catalog"
	"github.com/soward/depload/internal/record"
	"github.com/soward/depload/internal/source"
)

// collectInputs turns --file and --stream arguments into tagged inputs.
func collectInputs(files, streams []string) ([]source.Input, error) {
	if len(files) == 0 && len(streams) == 0 {
		return nil, fmt.Errorf("no input defined: pass at least one --file or --stream")
	}
	var inputs []source.Input
	for _, f := range files {
		in, err := source.FromFile(f)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	for _, s := range streams {
		in, err := source.ParseStream(s)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// readRecords decodes every input into one record set, preserving input
// order across sources.
func readRecords(ctx context.Context, inputs []source.Input, cat *catalog.Catalog) (*record.Set, error) {
	set := record.NewSet()
	for _, in := range inputs {
		recs, err := source.Read(ctx, in, cat.Has)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if err := set.Add(r); err != nil {
				return nil, fmt.Errorf("%s: %w", in.Path, err)
			}
		}
	}
	return set, nil
}
