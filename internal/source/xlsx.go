package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/soward/depload/internal/record"
)

// decodeXLSX reads every sheet whose name is a known catalog model. Sheets
// with unknown names are skipped with a warning, matching the workbook
// convention where auxiliary sheets (notes, pivots) sit next to data.
func decodeXLSX(ctx context.Context, r io.Reader, known func(model string) bool) ([]*record.Record, error) {
	if known == nil {
		return nil, fmt.Errorf("xlsx input requires a catalog to map sheet names to models")
	}
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx workbook: %w", err)
	}
	defer wb.Close()

	var out []*record.Record
	matched := 0
	for _, sheet := range wb.GetSheetList() {
		model := record.Normalize(sheet)
		if !known(model) {
			slog.Warn("skipping xlsx sheet: name is not a catalog model", "sheet", sheet)
			continue
		}
		matched++
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading xlsx sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		header := rows[0]
		for i, cells := range rows[1:] {
			if (i+1)%contextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			row := i + 2 // 1-based, after the header
			fields := make([]record.Field, len(header))
			for j, name := range header {
				value := ""
				if j < len(cells) {
					value = cells[j]
				}
				fields[j] = record.Field{Name: name, Value: value}
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
	if matched == 0 {
		return nil, fmt.Errorf("xlsx workbook has no sheet named after a catalog model")
	}
	return out, nil
}
