package priceapi

import (
	"pricescanner/infrastructure/cartstore"
)

// Product is the upstream price lookup payload.
type Product struct {
	Barcode     string   `json:"barcode" validate:"required"`
	ProductName string   `json:"product_name"`
	Price       float64  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency"`
	StockQty    *float64 `json:"stock_qty,omitempty" validate:"omitempty,gte=0"`
	Description string   `json:"description,omitempty"`
}

// CartProduct converts the payload into the cart input type.
func (p Product) CartProduct() cartstore.Product {
	out := cartstore.Product{
		Barcode:     p.Barcode,
		ProductName: p.ProductName,
		Price:       p.Price,
		Currency:    p.Currency,
		Description: p.Description,
	}
	if p.StockQty != nil {
		stock := int(*p.StockQty)
		out.StockQuantity = &stock
	}
	return out
}

// Credentials is the login form body.
type Credentials struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

type LoginResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
	Username    string `json:"username"`
}

type LogoutResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
}

type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Healthy reports whether the upstream declared itself healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}

type PrintResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type appURLResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}
