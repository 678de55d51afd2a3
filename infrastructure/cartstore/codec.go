package cartstore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// rawLine accepts whatever shape an older page version may have written.
type rawLine struct {
	Barcode     any `json:"barcode"`
	ProductName any `json:"product_name"`
	Price       any `json:"price"`
	Currency    any `json:"currency"`
	StockQty    any `json:"stock_qty"`
	Quantity    any `json:"quantity"`
	AddedAt     any `json:"addedAt"`
}

func encodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// decodeLines parses a stored record. Lines without a barcode or with a
// quantity below 1 are dropped, duplicates are merged, optional fields fall
// back to their defaults.
func decodeLines(data []byte, now time.Time) ([]Line, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Line{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart record: %w", err)
	}

	lines := make([]Line, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		var raw rawLine
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		barcode := strings.TrimSpace(coerceString(raw.Barcode))
		if barcode == "" {
			continue
		}
		qtyFloat, _ := coerceFloat(raw.Quantity)
		if qtyFloat < 1 {
			continue
		}
		qty := MaxQuantity
		if qtyFloat < MaxQuantity {
			qty = int(math.Trunc(qtyFloat))
		}
		price, _ := coerceFloat(raw.Price)
		if price < 0 {
			price = 0
		}

		if i, ok := index[barcode]; ok {
			lines[i].Quantity = addQuantity(lines[i].Quantity, qty)
			continue
		}

		line := Line{
			Barcode:     barcode,
			ProductName: strings.TrimSpace(coerceString(raw.ProductName)),
			UnitPrice:   price,
			Currency:    strings.TrimSpace(coerceString(raw.Currency)),
			Quantity:    clampQuantity(qty),
			AddedAt:     coerceTime(raw.AddedAt, now),
		}
		if line.ProductName == "" {
			line.ProductName = DefaultProductName
		}
		if line.Currency == "" {
			line.Currency = DefaultCurrency
		}
		if stock, ok := coerceFloat(raw.StockQty); ok && stock >= 0 {
			s := int(math.Trunc(stock))
			line.StockQuantity = &s
		}
		index[barcode] = len(lines)
		lines = append(lines, line)
	}
	return lines, nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceTime(v any, fallback time.Time) time.Time {
	s, ok := v.(string)
	if !ok {
		return fallback.UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}
