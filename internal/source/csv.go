package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/soward/depload/internal/record"
)

// contextCheckInterval is how many rows pass between context checks.
// Per-row checks would dominate decode time on wide files.
const contextCheckInterval = 100

func decodeCSV(ctx context.Context, r io.Reader, model string) ([]*record.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0 // every row must match the header width

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty csv input", model)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading csv header: %w", model, err)
	}

	var out []*record.Record
	row := 1
	for {
		if row%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading csv row %d: %w", model, row, err)
		}
		row++

		fields := make([]record.Field, len(header))
		for i, name := range header {
			fields[i] = record.Field{Name: name, Value: cells[i]}
		}
		ident, rest, err := identityOf(model, fields, row)
		if err != nil {
			return nil, err
		}
		out = append(out, &record.Record{
			Model:    model,
			Identity: ident,
			Fields:   rest,
			Row:      row,
		})
	}
}
