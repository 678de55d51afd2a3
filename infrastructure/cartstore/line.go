package cartstore

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultKey is the durable storage key holding the serialized cart.
	DefaultKey = "priceScanner_cart"

	DefaultCurrency    = "USD"
	DefaultProductName = "منتج غير معروف"

	// MaxQuantity is the upper bound for a single line.
	MaxQuantity = 999
)

// Line is one product-quantity record in the cart, keyed by barcode.
type Line struct {
	Barcode       string    `json:"barcode"`
	ProductName   string    `json:"product_name"`
	UnitPrice     float64   `json:"price"`
	Currency      string    `json:"currency"`
	StockQuantity *int      `json:"stock_qty,omitempty"`
	Quantity      int       `json:"quantity"`
	AddedAt       time.Time `json:"addedAt"`
}

// Product is what a scan result hands to AddProduct.
type Product struct {
	Barcode       string
	ProductName   string
	Price         float64
	Currency      string
	StockQuantity *int
	Description   string
}

// LineTotal returns unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return priceDecimal(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StockLimit reports the known on-hand count, if any.
func (l Line) StockLimit() (int, bool) {
	return stockLimit(l.StockQuantity)
}

// StockLimit reports the known on-hand count, if any.
func (p Product) StockLimit() (int, bool) {
	return stockLimit(p.StockQuantity)
}

func stockLimit(qty *int) (int, bool) {
	if qty == nil || *qty <= 0 {
		return 0, false
	}
	return *qty, true
}

// DeviceKey scopes DefaultKey to a single browser device.
func DeviceKey(deviceID string) string {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return DefaultKey
	}
	return DefaultKey + "/" + deviceID
}

func newLine(p Product, qty int, addedAt time.Time) Line {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = DefaultProductName
	}
	currency := strings.TrimSpace(p.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	price := p.Price
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		price = 0
	}
	line := Line{
		Barcode:     strings.TrimSpace(p.Barcode),
		ProductName: name,
		UnitPrice:   price,
		Currency:    currency,
		Quantity:    clampQuantity(qty),
		AddedAt:     addedAt.UTC(),
	}
	if p.StockQuantity != nil && *p.StockQuantity >= 0 {
		stock := *p.StockQuantity
		line.StockQuantity = &stock
	}
	return line
}

func cloneLine(l Line) Line {
	if l.StockQuantity != nil {
		stock := *l.StockQuantity
		l.StockQuantity = &stock
	}
	return l
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, cloneLine(l))
	}
	return out
}

func clampQuantity(qty int) int {
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

// addQuantity merges qty into existing without leaving [1, MaxQuantity].
func addQuantity(existing, qty int) int {
	existing = clampQuantity(existing)
	if qty >= MaxQuantity-existing {
		return MaxQuantity
	}
	return existing + qty
}

func priceDecimal(price float64) decimal.Decimal {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(price)
}
