package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := New()
	require.NoError(t, cat.Define("res.partner", ModelSchema{
		Description: "Contact",
		Parent:      "parent_id",
		Refs: map[string]string{
			"parent_id":  "res.partner",
			"company_id": "res.company",
		},
	}))
	require.NoError(t, cat.Define("res.company", ModelSchema{}))
	require.NoError(t, cat.Define("account.invoice", ModelSchema{
		Refs: map[string]string{
			"partner_id": "res.partner",
			"journal_id": "account.journal", // not defined in catalog
		},
	}))
	return cat
}

func TestCatalog_Lookup(t *testing.T) {
	cat := testCatalog(t)

	assert.True(t, cat.Has("res.partner"))
	assert.False(t, cat.Has("res.users"))

	target, ok := cat.FieldReferencesModel("account.invoice", "partner_id")
	require.True(t, ok)
	assert.Equal(t, "res.partner", target)

	_, ok = cat.FieldReferencesModel("account.invoice", "name")
	assert.False(t, ok)

	parent, ok := cat.ParentField("res.partner")
	require.True(t, ok)
	assert.Equal(t, "parent_id", parent)

	_, ok = cat.ParentField("res.company")
	assert.False(t, ok)
}

func TestCatalog_Describe(t *testing.T) {
	cat := testCatalog(t)
	assert.Equal(t, "Contact", cat.Describe("res.partner"))
	assert.Equal(t, "res.company", cat.Describe("res.company"))
}

func TestCatalog_DefineRejectsDuplicates(t *testing.T) {
	cat := New()
	require.NoError(t, cat.Define("res.partner", ModelSchema{}))
	err := cat.Define("res.partner", ModelSchema{})
	assert.ErrorContains(t, err, "already defined")
}

func TestCatalog_DefineRejectsCrossModelParent(t *testing.T) {
	cat := New()
	err := cat.Define("res.partner", ModelSchema{
		Parent: "parent_id",
		Refs:   map[string]string{"parent_id": "res.company"},
	})
	assert.ErrorContains(t, err, "hierarchy must stay within its own model")
}

func TestCatalog_Dependencies(t *testing.T) {
	cat := testCatalog(t)
	deps := cat.Dependencies()

	// Self-references and targets absent from the catalog are not
	// model-level edges.
	assert.Equal(t, []Dependency{
		{FromModel: "res.partner", ToModel: "res.company", ViaField: "company_id"},
		{FromModel: "account.invoice", ToModel: "res.partner", ViaField: "partner_id"},
	}, deps)
}

func TestCatalog_DependenciesDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		a := testCatalog(t).Dependencies()
		b := testCatalog(t).Dependencies()
		require.Equal(t, a, b)
	}
}
