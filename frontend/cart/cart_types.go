package cart

import (
	"pricescanner/frontend/shared/qty"
	"pricescanner/infrastructure/cartstore"
)

// PageData drives the cart list.
type PageData struct {
	Lines []LineView
	Count int
	Total string
	// Currency is set when every line shares one currency.
	Currency string
}

type LineView struct {
	cartstore.Line
	Limit     int
	LineTotal string
}

// Payload is the JSON shape of /cart/snapshot and of every cart event.
type Payload struct {
	Version uint64           `json:"version"`
	Count   int              `json:"count"`
	Total   string           `json:"total"`
	Badge   string           `json:"badge"`
	Lines   []cartstore.Line `json:"lines,omitempty"`
}

func NewPayload(snap cartstore.Snapshot, withLines bool) Payload {
	p := Payload{
		Version: snap.Version,
		Count:   snap.Count,
		Total:   snap.Total.StringFixed(2),
		Badge:   cartstore.BadgeText(snap.Count),
	}
	if withLines {
		p.Lines = snap.Lines
		if p.Lines == nil {
			p.Lines = []cartstore.Line{}
		}
	}
	return p
}

func buildPageData(snap cartstore.Snapshot) PageData {
	data := PageData{
		Count: snap.Count,
		Total: snap.Total.StringFixed(2),
	}
	for i, l := range snap.Lines {
		data.Lines = append(data.Lines, LineView{
			Line:      l,
			Limit:     qty.Limit(l.StockQuantity),
			LineTotal: l.LineTotal().StringFixed(2),
		})
		switch {
		case i == 0:
			data.Currency = l.Currency
		case data.Currency != l.Currency:
			data.Currency = ""
		}
	}
	return data
}
