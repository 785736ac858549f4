package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumn_Plain(t *testing.T) {
	col := ParseColumn("name")
	assert.Equal(t, "name", col.Base)
	assert.Equal(t, RefNone, col.Ref)
	assert.False(t, col.Nested)
}

func TestParseColumn_ExternalRef(t *testing.T) {
	col := ParseColumn("parent_id/id")
	assert.Equal(t, "parent_id", col.Base)
	assert.Equal(t, RefExternal, col.Ref)
	assert.False(t, col.Nested)
}

func TestParseColumn_DatabaseRef(t *testing.T) {
	col := ParseColumn("parent_id/.id")
	assert.Equal(t, "parent_id", col.Base)
	assert.Equal(t, RefDatabase, col.Ref)
	assert.False(t, col.Nested)
}

func TestParseColumn_Nested(t *testing.T) {
	col := ParseColumn("line_ids/product_id/id")
	assert.Equal(t, "line_ids/product_id", col.Base)
	assert.Equal(t, RefExternal, col.Ref)
	assert.True(t, col.Nested)
}

func TestIdentityColumn(t *testing.T) {
	kind, ok := IdentityColumn("id")
	require.True(t, ok)
	assert.Equal(t, ExternalID, kind)

	kind, ok = IdentityColumn(".id")
	require.True(t, ok)
	assert.Equal(t, DatabaseID, kind)

	_, ok = IdentityColumn("parent_id/id")
	assert.False(t, ok)
}

func TestIdentityKind_String(t *testing.T) {
	assert.Equal(t, "id", ExternalID.String())
	assert.Equal(t, ".id", DatabaseID.String())
}

func TestRecord_Field(t *testing.T) {
	r := &Record{
		Model:    "res.partner",
		Identity: Identity{Kind: ExternalID, Value: "p1"},
		Fields: []Field{
			{Name: "name", Value: "Deco Addict"},
			{Name: "city", Value: ""},
		},
	}

	v, ok := r.Field("name")
	require.True(t, ok)
	assert.Equal(t, "Deco Addict", v)

	v, ok = r.Field("city")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = r.Field("missing")
	assert.False(t, ok)
}

func TestKey_String(t *testing.T) {
	k := Key{Model: "res.partner", Identity: "p1"}
	assert.Equal(t, "res.partner/p1", k.String())
}

func TestNormalize_NFC(t *testing.T) {
	// e + combining acute vs precomposed e-acute must collapse to the
	// same dedup key.
	decomposed := "café"
	precomposed := "café"
	assert.Equal(t, Normalize(precomposed), Normalize(decomposed))
}

func TestSet_InsertionOrderAndLookup(t *testing.T) {
	set := NewSet()
	p1 := &Record{Model: "res.partner", Identity: Identity{Kind: ExternalID, Value: "p1"}}
	i1 := &Record{Model: "account.invoice", Identity: Identity{Kind: ExternalID, Value: "i1"}}
	p2 := &Record{Model: "res.partner", Identity: Identity{Kind: ExternalID, Value: "p2"}}

	require.NoError(t, set.Add(p1))
	require.NoError(t, set.Add(i1))
	require.NoError(t, set.Add(p2))

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []*Record{p1, i1, p2}, set.Records())
	assert.Equal(t, []string{"res.partner", "account.invoice"}, set.Models())

	got, ok := set.Lookup("res.partner", "p2")
	require.True(t, ok)
	assert.Same(t, p2, got)

	_, ok = set.Lookup("res.partner", "p9")
	assert.False(t, ok)
}

func TestSet_DuplicateIdentity(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(&Record{
		Model: "res.partner", Identity: Identity{Kind: ExternalID, Value: "p1"}, Row: 2,
	}))

	err := set.Add(&Record{
		Model: "res.partner", Identity: Identity{Kind: ExternalID, Value: "p1"}, Row: 7,
	})
	require.Error(t, err)

	var dup *DuplicateIdentityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "res.partner", dup.Model)
	assert.Equal(t, "p1", dup.Identity)
	assert.Equal(t, 7, dup.Row)
}

func TestSet_SameIdentityDifferentModels(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(&Record{Model: "res.partner", Identity: Identity{Value: "x1"}}))
	require.NoError(t, set.Add(&Record{Model: "res.company", Identity: Identity{Value: "x1"}}))
	assert.Equal(t, 2, set.Len())
}
