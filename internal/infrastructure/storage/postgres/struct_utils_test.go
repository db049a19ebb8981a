package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gespro/internal/core/entity"
)

type testEmbedded struct {
	entity.Catalog
	Price decimal.Decimal `db:"price"`
	Note  string          `db:"-"`
	skip  string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[testEmbedded]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "owner_id")
	assert.Contains(t, cols, "code")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "price")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "skip")
}

func TestStructToMap(t *testing.T) {
	e := testEmbedded{
		Price: decimal.NewFromInt(150),
	}
	e.Name = "Clavier sans fil"
	e.Code = "PRD-00042"

	m := StructToMap(e)

	assert.Equal(t, "Clavier sans fil", m["name"])
	assert.Equal(t, "PRD-00042", m["code"])
	assert.Equal(t, decimal.NewFromInt(150), m["price"])
	_, hasNote := m["Note"]
	assert.False(t, hasNote)
}

func TestStructToMap_Pointer(t *testing.T) {
	e := &testEmbedded{}
	e.Name = "Souris"

	m := StructToMap(e)
	assert.Equal(t, "Souris", m["name"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("hello"))
}
