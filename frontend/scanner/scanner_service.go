package scanner

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"pricescanner/infrastructure/cache"
	"pricescanner/infrastructure/priceapi"
)

// PriceLookup is the upstream price endpoint.
type PriceLookup interface {
	Price(ctx context.Context, barcode string) (priceapi.Product, error)
}

// Lookup resolves barcodes through a short-lived cache so a double scan
// costs one upstream call.
type Lookup struct {
	prices PriceLookup
	cache  *cache.ProductCache
}

func NewLookup(prices PriceLookup, productCache *cache.ProductCache) *Lookup {
	return &Lookup{prices: prices, cache: productCache}
}

func (l *Lookup) Find(ctx context.Context, barcode string) (priceapi.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return priceapi.Product{}, priceapi.ErrInvalidBarcode
	}
	if l.cache != nil {
		if p, ok := l.cache.Get(barcode); ok {
			return p, nil
		}
	}
	p, err := l.prices.Price(ctx, barcode)
	if err != nil {
		return priceapi.Product{}, errors.WithMessage(err, "lookup "+barcode)
	}
	if l.cache != nil {
		l.cache.Add(p)
	}
	return p, nil
}
