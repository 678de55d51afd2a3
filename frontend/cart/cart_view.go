package cart

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"pricescanner/frontend/shared/html"
)

func CartPage(page html.Page, data PageData) templ.Component {
	return html.Layout(page, cartBody(data))
}

func cartBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(data.Lines) == 0 {
			_, err := io.WriteString(w, `<section class="cart empty" data-cart-count="0"><p>السلة فارغة</p><a href="/scanner">ابدأ المسح</a></section>`)
			return err
		}
		if _, err := fmt.Fprintf(w, `<section class="cart" data-cart-count="%d"><ul class="lines">`, data.Count); err != nil {
			return err
		}
		for _, l := range data.Lines {
			if err := lineRow(l).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `</ul>
<footer class="totals">
  <p>عدد القطع: <strong data-cart-count-text>%d</strong></p>
  <p>الإجمالي: <strong data-cart-total>%s</strong> <small>%s</small></p>
</footer>
<div class="actions">
  <form method="POST" action="/invoice/print"><button type="submit">طباعة الفاتورة</button></form>
  <a href="/invoice.pdf" download>تنزيل PDF</a>
  <a href="/cart/export.csv" download>تصدير CSV</a>
  <form method="POST" action="/cart/clear" onsubmit="return confirm('هل تريد إفراغ السلة؟')"><button type="submit" class="danger">إفراغ السلة</button></form>
</div>
</section>`, data.Count, templ.EscapeString(data.Total), templ.EscapeString(data.Currency)); err != nil {
			return err
		}
		return nil
	})
}

func lineRow(l LineView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := "/cart/items/" + url.PathEscape(l.Barcode)
		_, err := fmt.Fprintf(w, `<li class="line" data-barcode="%s">
  <div class="name">%s <small>%s</small></div>
  <div class="price">%.2f %s × %d = <strong>%s</strong></div>
  <form method="POST" action="%s/quantity" class="qty">
    <input name="quantity" type="number" min="0" max="%d" value="%d" data-clamp>
    <button type="submit">تحديث</button>
  </form>
  <form method="POST" action="%s/remove" class="remove"><button type="submit">حذف</button></form>
</li>`,
			templ.EscapeString(l.Barcode),
			templ.EscapeString(l.ProductName),
			templ.EscapeString(l.Barcode),
			l.UnitPrice,
			templ.EscapeString(l.Currency),
			l.Quantity,
			templ.EscapeString(l.LineTotal),
			base,
			l.Limit,
			l.Quantity,
			base,
		)
		return err
	})
}
