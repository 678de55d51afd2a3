package cache

import (
	"strings"
	"sync"
	"time"

	"pricescanner/infrastructure/priceapi"
)

type productEntry struct {
	product   priceapi.Product
	expiresAt time.Time
}

// ProductCache keeps recent price lookups by barcode so a double scan does
// not hit the API twice.
type ProductCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	products map[string]productEntry
	now      func() time.Time
}

func NewProductCache(ttl time.Duration) *ProductCache {
	return &ProductCache{ttl: ttl, products: make(map[string]productEntry), now: time.Now}
}

func (c *ProductCache) Add(p priceapi.Product) {
	key := strings.TrimSpace(p.Barcode)
	if c.ttl <= 0 || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[key] = productEntry{product: p, expiresAt: c.now().Add(c.ttl)}
	c.pruneLocked()
}

func (c *ProductCache) Get(barcode string) (priceapi.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.products[strings.TrimSpace(barcode)]
	if !ok || !c.now().Before(e.expiresAt) {
		return priceapi.Product{}, false
	}
	return e.product, true
}

func (c *ProductCache) pruneLocked() {
	now := c.now()
	for k, e := range c.products {
		if !now.Before(e.expiresAt) {
			delete(c.products, k)
		}
	}
}
