package invoice

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"

	"pricescanner/frontend/shared/barcode"
)

func renderInvoicePDF(data Data) ([]byte, error) {
	if len(data.Lines) == 0 {
		return nil, fmt.Errorf("no lines to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	margin := 12.0
	contentW := pageW - 2*margin

	shop := pdfText(tr, data.ShopName, "Price Scanner")
	pdf.SetFont("Helvetica", "B", 26)
	shopFont := fitFontSizeForWidth(pdf, "Helvetica", "B", 26, 14, shop, contentW)
	pdf.SetFont("Helvetica", "B", shopFont)
	pdf.CellFormat(0, 14, shop, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "INVOICE", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Printed: "+data.PrintedAt.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	colBarcode := 62.0
	colQty := 18.0
	colPrice := 28.0
	colTotal := 30.0
	colName := contentW - colBarcode - colQty - colPrice - colTotal
	rowH := 20.0

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(colName, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colBarcode, 8, "Barcode", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colQty, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, 8, "Unit", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, 8, "Total", "1", 1, "R", true, 0, "")

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	for i, line := range data.Lines {
		if pdf.GetY()+rowH > 270 {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()

		name := pdfText(tr, line.ProductName, "Item "+line.Barcode)
		pdf.SetFont("Helvetica", "", 10)
		nameFont := fitFontSizeForWidth(pdf, "Helvetica", "", 10, 7, name, colName-2)
		pdf.SetFont("Helvetica", "", nameFont)
		pdf.CellFormat(colName, rowH, name, "1", 0, "L", false, 0, "")

		pdf.CellFormat(colBarcode, rowH, "", "1", 0, "C", false, 0, "")
		if png, err := barcode.Code128PNG(line.Barcode, 900, 220); err == nil {
			imageName := fmt.Sprintf("line-barcode-%d", i)
			pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(png))
			pdf.ImageOptions(imageName, x+colName+3, y+2, colBarcode-6, rowH-8, false, opt, 0, "")
		}
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetXY(x+colName, y+rowH-6)
		pdf.CellFormat(colBarcode, 5, pdfText(tr, line.Barcode, "-"), "", 0, "C", false, 0, "")
		pdf.SetXY(x+colName+colBarcode, y)

		currency := pdfText(tr, line.Currency, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(colQty, rowH, fmt.Sprintf("%d", line.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, rowH, strings.TrimSpace(fmt.Sprintf("%.2f %s", line.UnitPrice, currency)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, rowH, line.LineTotal().StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW-colTotal, 9, fmt.Sprintf("Items: %d    Grand total", data.Count), "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 9, data.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	if strings.TrimSpace(data.AppURL) != "" {
		if png, err := barcode.QRPNG(data.AppURL, 512); err == nil {
			pdf.Ln(6)
			if pdf.GetY()+45 > 270 {
				pdf.AddPage()
			}
			size := 36.0
			y := pdf.GetY()
			pdf.RegisterImageOptionsReader("app-url-qr", opt, bytes.NewReader(png))
			pdf.ImageOptions("app-url-qr", (pageW-size)/2, y, size, size, false, opt, 0, "")
			pdf.SetY(y + size + 1)
			pdf.SetFont("Helvetica", "", 8)
			pdf.CellFormat(0, 5, pdfText(tr, data.AppURL, ""), "", 1, "C", false, 0, "")
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// pdfText maps s into the core font encoding. Text the core fonts cannot
// show is replaced by fallback.
func pdfText(tr func(string) string, s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return fallback
		}
	}
	return tr(s)
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}
