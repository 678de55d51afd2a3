package qty

import (
	"fmt"
	"strconv"
	"strings"

	"pricescanner/infrastructure/cartstore"
)

const (
	msgInvalid      = "الرجاء إدخال كمية صحيحة"
	msgOverMax      = "الحد الأقصى للكمية هو %d"
	msgOverStock    = "الكمية المطلوبة تتجاوز المخزون المتاح (%d)"
	msgBelowMinimum = "أقل كمية مسموحة هي 1"
)

// Limit returns the largest quantity a line may hold given its known stock.
func Limit(stock *int) int {
	if stock != nil && *stock > 0 && *stock < cartstore.MaxQuantity {
		return *stock
	}
	return cartstore.MaxQuantity
}

// Clamp bounds requested into [1, Limit(stock)]. The message is empty when no
// adjustment was needed.
func Clamp(requested int, stock *int) (int, string) {
	limit := Limit(stock)
	switch {
	case requested < 1:
		return 1, msgBelowMinimum
	case requested > limit && limit < cartstore.MaxQuantity:
		return limit, fmt.Sprintf(msgOverStock, limit)
	case requested > limit:
		return limit, fmt.Sprintf(msgOverMax, limit)
	}
	return requested, ""
}

// Parse reads a form quantity. Blank input means 1. Anything above
// MaxQuantity comes back as MaxQuantity+1 so Clamp still reports it.
func Parse(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, msgInvalid
	}
	if n > cartstore.MaxQuantity {
		n = cartstore.MaxQuantity + 1
	}
	return n, ""
}
