package nav

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	sharedcontext "pricescanner/frontend/shared/context"
	"pricescanner/infrastructure/cartstore"
)

const (
	PageScanner = "scanner"
	PageCart    = "cart"
	PageInfo    = "info"
)

// BadgeID is the element the client script updates from the cart event
// stream.
const BadgeID = "cart-badge"

// TopNavData is shared with page renderers.
type TopNavData struct {
	Username string
	Active   string
	Count    int
}

// Badge is the count text, "0" included.
func (d TopNavData) Badge() string {
	return cartstore.BadgeText(d.Count)
}

// BuildTopNavData reads the signed-in user and the request's cart count.
func BuildTopNavData(ctx context.Context, active string) TopNavData {
	data := TopNavData{Active: active}
	if user, ok := sharedcontext.GetUserFromContext(ctx); ok {
		data.Username = user.Username
	}
	if store, ok := sharedcontext.GetCartFromContext(ctx); ok {
		data.Count = store.Count()
	}
	return data
}

type link struct {
	page  string
	href  string
	label string
}

var links = []link{
	{page: PageScanner, href: "/scanner", label: "الماسح"},
	{page: PageCart, href: "/cart", label: "السلة"},
	{page: PageInfo, href: "/info", label: "معلومات"},
}

func TopNav(data TopNavData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="topnav"><ul>`); err != nil {
			return err
		}
		for _, l := range links {
			class := ""
			if l.page == data.Active {
				class = ` class="active"`
			}
			if _, err := fmt.Fprintf(w, `<li><a href="%s"%s>%s`, l.href, class, templ.EscapeString(l.label)); err != nil {
				return err
			}
			if l.page == PageCart {
				if _, err := fmt.Fprintf(w, ` <span id="%s" class="badge" data-count="%d">%s</span>`, BadgeID, data.Count, templ.EscapeString(data.Badge())); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</a></li>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}
		if data.Username != "" {
			if _, err := fmt.Fprintf(w, `<form method="POST" action="/logout" class="logout"><span>%s</span><button type="submit">تسجيل الخروج</button></form>`, templ.EscapeString(data.Username)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav>`)
		return err
	})
}
