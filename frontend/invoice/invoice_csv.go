package invoice

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"pricescanner/infrastructure/cartstore"
)

var csvHeader = []string{"barcode", "product_name", "price", "currency", "stock_qty", "quantity", "line_total", "added_at"}

// WriteCSV writes one row per cart line after a header row.
func WriteCSV(w io.Writer, lines []cartstore.Line) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range lines {
		stock := ""
		if l.StockQuantity != nil {
			stock = strconv.Itoa(*l.StockQuantity)
		}
		if err := writer.Write([]string{
			l.Barcode,
			l.ProductName,
			strconv.FormatFloat(l.UnitPrice, 'f', 2, 64),
			l.Currency,
			stock,
			strconv.Itoa(l.Quantity),
			l.LineTotal().StringFixed(2),
			l.AddedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
