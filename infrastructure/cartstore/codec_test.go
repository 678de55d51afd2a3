package cartstore

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLines_ToleratesOlderShapes(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := []byte(`[
		{"barcode":"A1","product_name":"Widget","price":"9.99","quantity":"2","addedAt":"2025-12-01T08:00:00.000Z"},
		{"barcode":123456789012,"price":2.5,"quantity":1,"stock_qty":"7"},
		{"barcode":"","price":1,"quantity":1},
		{"barcode":"Z","price":"free","quantity":3},
		{"barcode":"Q","price":1,"quantity":0},
		{"barcode":"A1","price":9.99,"quantity":1},
		{"barcode":"BIG","price":1,"quantity":5000},
		"junk"
	]`)

	lines, err := decodeLines(raw, now)
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal(t, "A1", lines[0].Barcode)
	assert.Equal(t, 9.99, lines[0].UnitPrice)
	assert.Equal(t, 3, lines[0].Quantity, "duplicate barcodes merge")
	assert.Equal(t, DefaultCurrency, lines[0].Currency)
	assert.True(t, time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC).Equal(lines[0].AddedAt))

	assert.Equal(t, "123456789012", lines[1].Barcode)
	assert.Equal(t, DefaultProductName, lines[1].ProductName)
	require.NotNil(t, lines[1].StockQuantity)
	assert.Equal(t, 7, *lines[1].StockQuantity)
	assert.True(t, now.Equal(lines[1].AddedAt))

	assert.Equal(t, "Z", lines[2].Barcode)
	assert.Zero(t, lines[2].UnitPrice, "non-numeric price contributes 0")

	assert.Equal(t, MaxQuantity, lines[3].Quantity)
}

func TestDecodeLines_HugeQuantitiesStayInRange(t *testing.T) {
	raw := []byte(`[
		{"barcode":"H","price":1,"quantity":1e300},
		{"barcode":"H","price":1,"quantity":9.3e18},
		{"barcode":"N","price":1,"quantity":-1e300}
	]`)

	lines, err := decodeLines(raw, time.Now())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, MaxQuantity, lines[0].Quantity)
}

func TestAddQuantity(t *testing.T) {
	assert.Equal(t, 3, addQuantity(1, 2))
	assert.Equal(t, MaxQuantity, addQuantity(998, 1))
	assert.Equal(t, MaxQuantity, addQuantity(998, 5))
	assert.Equal(t, MaxQuantity, addQuantity(1, math.MaxInt))
	assert.Equal(t, MaxQuantity, addQuantity(MaxQuantity, 1))
}

func TestEncodeLines_UsesStorageFieldNames(t *testing.T) {
	data, err := encodeLines([]Line{{
		Barcode:     "A1",
		ProductName: "Widget",
		UnitPrice:   9.99,
		Currency:    "USD",
		Quantity:    2,
		AddedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	var fields []map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Len(t, fields, 1)
	for _, name := range []string{"barcode", "product_name", "price", "currency", "quantity", "addedAt"} {
		assert.Contains(t, fields[0], name)
	}
	assert.NotContains(t, fields[0], "stock_qty", "unknown stock is omitted")

	empty, err := encodeLines(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
