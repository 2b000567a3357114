package podrm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	person := MustDescribe(EntityDescription{
		Table:       "Person",
		Columns:     []Column{{Name: "id", Kind: IntKind}, {Name: "address", Kind: IntKind}},
		ForeignKeys: []ForeignKey{{Column: 1, References: testAddress}},
	})
	node := MustDescribe(EntityDescription{
		Table:       "Node",
		Columns:     []Column{{Name: "id", Kind: IntKind}, {Name: "parent", Kind: IntKind, Nullable: true}},
		ForeignKeys: []ForeignKey{{Column: 1}},
	})

	registry := NewRegistry()
	err := registry.Register(person)
	assert.True(t, errors.Is(err, ErrUnknownEntity))

	require.NoError(t, registry.Register(testAddress))
	require.NoError(t, registry.Register(person))
	require.NoError(t, registry.Register(node))
	assert.Equal(t, 3, registry.Len())

	err = registry.Register(testAddress)
	assert.True(t, errors.Is(err, ErrDuplicateEntity))

	// Table names compare case-insensitively
	err = registry.Register(MustDescribe(EntityDescription{
		Table:   "NODE",
		Columns: []Column{{Name: "id", Kind: IntKind}},
	}))
	assert.True(t, errors.Is(err, ErrDuplicateEntity))

	d, ok := registry.Lookup("person")
	assert.True(t, ok)
	assert.Same(t, person, d)

	_, ok = registry.Lookup("Missing")
	assert.False(t, ok)

	tables := []string{}
	for _, d := range registry.Descriptions() {
		tables = append(tables, d.Table)
	}
	assert.Equal(t, []string{"Address", "Node", "Person"}, tables)
}

func TestRegistry_unknownCopy(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(testAddress))

	// Same table, different description
	other := MustDescribe(EntityDescription{
		Table:   "Address",
		Columns: []Column{{Name: "id", Kind: IntKind}},
	})
	person := MustDescribe(EntityDescription{
		Table:       "Person",
		Columns:     []Column{{Name: "id", Kind: IntKind}, {Name: "address", Kind: IntKind}},
		ForeignKeys: []ForeignKey{{Column: 1, References: other}},
	})

	err := registry.Register(person)
	assert.True(t, errors.Is(err, ErrUnknownEntity))
}

func TestRegistry_CreationOrder(t *testing.T) {
	country := MustDescribe(EntityDescription{
		Table:   "Zcountry",
		Columns: []Column{{Name: "code", Kind: TextKind}},
		IDMode:  Manual,
	})
	address := MustDescribe(EntityDescription{
		Table:       "Baddress",
		Columns:     []Column{{Name: "id", Kind: IntKind}, {Name: "country", Kind: TextKind}},
		ForeignKeys: []ForeignKey{{Column: 1, References: country}},
	})
	person := MustDescribe(EntityDescription{
		Table:       "Aperson",
		Columns:     []Column{{Name: "id", Kind: IntKind}, {Name: "address", Kind: IntKind}, {Name: "friend", Kind: IntKind, Nullable: true}},
		ForeignKeys: []ForeignKey{{Column: 1, References: address}, {Column: 2}},
	})

	registry := NewRegistry()
	require.NoError(t, registry.Register(country))
	require.NoError(t, registry.Register(address))
	require.NoError(t, registry.Register(person))

	tables := []string{}
	for _, d := range registry.CreationOrder() {
		tables = append(tables, d.Table)
	}
	assert.Equal(t, []string{"Zcountry", "Baddress", "Aperson"}, tables)

	conn := newTestConnection(t)
	require.NoError(t, registry.CreateAll(conn))
	for _, d := range registry.Descriptions() {
		ok, err := exists(conn, d)
		require.NoError(t, err)
		assert.True(t, ok, d.Table)
	}

	// Creating again is a no-op
	require.NoError(t, registry.CreateAll(conn))
}
