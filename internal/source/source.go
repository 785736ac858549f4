// Package source decodes input files and streams into records. The loader
// core is agnostic to the original file format; everything here normalizes
// to the same shape: a model, an identity, and ordered raw fields.
//
// Conventions follow the import tooling the inputs come from: for plain
// files, the basename (before the extension) encodes the target model and
// the extension the format; Excel workbooks instead map each sheet name to
// a model. Streams declare both explicitly.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/soward/depload/internal/record"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Input is one tagged record source.
type Input struct {
	// Path is the file path, or "-" for stdin (streams only).
	Path   string
	Format string
	// Model is the target model. Ignored for xlsx, where sheet names
	// carry the models.
	Model string
}

// FromFile derives an Input from a file path: the extension selects the
// format and, for non-Excel files, the basename encodes the model.
func FromFile(path string) (Input, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case FormatCSV, FormatJSON:
		// Filenames are case-insensitive carriers of the model name.
		base := strings.ToLower(filepath.Base(path))
		model := record.Normalize(strings.TrimSuffix(base, filepath.Ext(base)))
		if model == "" {
			return Input{}, fmt.Errorf("%s: filename must encode the target model", path)
		}
		return Input{Path: path, Format: ext, Model: model}, nil
	case FormatXLSX:
		return Input{Path: path, Format: FormatXLSX}, nil
	case "xls":
		return Input{}, fmt.Errorf("%s: legacy xls workbooks are not supported; convert to xlsx", path)
	default:
		return Input{}, fmt.Errorf("%s: unsupported format %q (supported: csv, json, xlsx)", path, ext)
	}
}

// ParseStream parses a `format:model:path` stream argument. The path may
// be "-" for stdin. Excel cannot be streamed.
func ParseStream(arg string) (Input, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) != 3 {
		return Input{}, fmt.Errorf("stream %q: expected format:model:path", arg)
	}
	format := strings.ToLower(parts[0])
	if format != FormatCSV && format != FormatJSON {
		return Input{}, fmt.Errorf("stream %q: unsupported stream format %q (supported: csv, json)", arg, format)
	}
	model := record.Normalize(parts[1])
	if model == "" {
		return Input{}, fmt.Errorf("stream %q: empty model", arg)
	}
	return Input{Path: parts[2], Format: format, Model: model}, nil
}

// Read opens and decodes one input. known filters Excel sheet names to
// catalog models; it is unused for csv and json.
func Read(ctx context.Context, in Input, known func(model string) bool) ([]*record.Record, error) {
	var r io.Reader
	if in.Path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(in.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", in.Path, err)
		}
		defer f.Close()
		r = f
	}
	return Decode(ctx, r, in, known)
}

// Decode decodes one already-open input.
func Decode(ctx context.Context, r io.Reader, in Input, known func(model string) bool) ([]*record.Record, error) {
	switch in.Format {
	case FormatCSV:
		return decodeCSV(ctx, r, in.Model)
	case FormatJSON:
		return decodeJSON(ctx, r, in.Model)
	case FormatXLSX:
		return decodeXLSX(ctx, r, known)
	default:
		return nil, fmt.Errorf("unsupported format %q", in.Format)
	}
}

// identityOf extracts the record identity from ordered fields, returning
// the remaining fields. Exactly one identity column must be present.
func identityOf(model string, fields []record.Field, row int) (record.Identity, []record.Field, error) {
	var ident record.Identity
	found := false
	rest := make([]record.Field, 0, len(fields))
	for _, f := range fields {
		kind, ok := record.IdentityColumn(f.Name)
		if !ok {
			rest = append(rest, f)
			continue
		}
		if found {
			return record.Identity{}, nil, fmt.Errorf("%s row %d: both id and .id columns present; a record carries at most one identity", model, row)
		}
		found = true
		value := record.Normalize(strings.TrimSpace(f.Value))
		if value == "" {
			return record.Identity{}, nil, fmt.Errorf("%s row %d: empty %s value", model, row, kind)
		}
		ident = record.Identity{Kind: kind, Value: value}
	}
	if !found {
		return record.Identity{}, nil, fmt.Errorf("%s: no identity column (id or .id); stable identities are required for ordering and dedup", model)
	}
	return ident, rest, nil
}
