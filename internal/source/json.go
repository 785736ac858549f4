package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/soward/depload/internal/record"
)

// decodeJSON reads an array of flat objects. Field order must survive into
// the record, so objects are walked at token level instead of through
// map-based unmarshalling, which loses key order.
func decodeJSON(ctx context.Context, r io.Reader, model string) ([]*record.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: reading json input: %w", model, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%s: json input must be an array of objects", model)
	}

	var out []*record.Record
	row := 0
	for dec.More() {
		row++
		if row%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields, err := decodeObject(dec, model, row)
		if err != nil {
			return nil, err
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
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: reading json input: %w", model, err)
	}
	return out, nil
}

// decodeObject consumes one object from the stream, keeping key order.
func decodeObject(dec *json.Decoder, model string, row int) ([]record.Field, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s element %d: %w", model, row, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%s element %d: expected an object", model, row)
	}

	var fields []record.Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%s element %d: %w", model, row, err)
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%s element %d field %q: %w", model, row, key, err)
		}
		var value string
		switch v := valTok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = strconv.FormatBool(v)
		case nil:
			value = ""
		case json.Delim:
			return nil, fmt.Errorf("%s element %d field %q: nested values are not supported", model, row, key)
		default:
			return nil, fmt.Errorf("%s element %d field %q: unsupported value type %T", model, row, key, v)
		}
		fields = append(fields, record.Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, fmt.Errorf("%s element %d: %w", model, row, err)
	}
	return fields, nil
}
