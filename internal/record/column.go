package record

import "strings"

// RefKind classifies how a column addresses another record.
type RefKind int

const (
	// RefNone marks a plain value column.
	RefNone RefKind = iota
	// RefExternal marks a `<field>/id` column carrying an external id.
	RefExternal
	// RefDatabase marks a `<field>/.id` column carrying a database id.
	RefDatabase
)

// Column is the parsed form of an input column name. The base name is the
// field the target store knows about; the suffix, if any, says which kind of
// identifier the column carries.
type Column struct {
	Base string
	Ref  RefKind
	// Nested is set when the base name still contains a path separator
	// after stripping the identifier suffix (e.g. `line_ids/product_id/id`).
	// Nested sub-records are unsupported and rejected at graph build.
	Nested bool
}

// IdentityColumn reports whether name is one of the two identity columns
// and, if so, which kind it declares.
func IdentityColumn(name string) (IdentityKind, bool) {
	switch name {
	case "id":
		return ExternalID, true
	case ".id":
		return DatabaseID, true
	}
	return 0, false
}

// ParseColumn splits an input column name into its base field name and
// identifier suffix. The suffix grammar follows the import convention of
// the target store: `<field>/id` references by external id, `<field>/.id`
// by database id, anything else is a plain value column.
func ParseColumn(name string) Column {
	col := Column{Base: name}
	switch {
	case strings.HasSuffix(name, "/.id"):
		col.Base = strings.TrimSuffix(name, "/.id")
		col.Ref = RefDatabase
	case strings.HasSuffix(name, "/id"):
		col.Base = strings.TrimSuffix(name, "/id")
		col.Ref = RefExternal
	}
	col.Nested = strings.Contains(col.Base, "/")
	return col
}
