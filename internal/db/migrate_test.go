package db

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestModelsTables(t *testing.T) {
	var tables []string
	for _, m := range Models() {
		s, err := schema.Parse(m, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		tables = append(tables, s.Table)
	}
	assert.Equal(t, []string{"users", "products", "orders"}, tables)
}

func TestProductsKeyedByName(t *testing.T) {
	s, err := schema.Parse(Models()[1], &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	require.Len(t, s.PrimaryFields, 1)
	assert.Equal(t, "product_name", s.PrimaryFields[0].DBName)
}
