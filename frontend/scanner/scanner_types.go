package scanner

import (
	"pricescanner/infrastructure/priceapi"
)

// PageData drives the scanner screen and its result panel.
type PageData struct {
	Query   string
	Product *priceapi.Product
	// InCart is the quantity of this barcode already in the cart.
	InCart int
	// MaxAdd bounds the quantity input.
	MaxAdd int
}

// HasResult reports whether a product was found for Query.
func (d PageData) HasResult() bool {
	return d.Product != nil
}

// StockText renders the advisory stock count.
func (d PageData) StockText() string {
	if d.Product == nil || d.Product.StockQty == nil {
		return "غير معروف"
	}
	return formatQty(*d.Product.StockQty)
}
