package login

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"pricescanner/infrastructure/priceapi"
)

// AuthClient is the upstream login surface.
type AuthClient interface {
	Login(ctx context.Context, creds priceapi.Credentials) (priceapi.LoginResult, []*http.Cookie, error)
	Logout(ctx context.Context) (priceapi.LogoutResult, []*http.Cookie, error)
}

// SessionCache forgets cached auth checks for a browser session.
type SessionCache interface {
	Delete(token string)
}

// DefaultLanding is where a successful login goes when the upstream names no
// local page.
const DefaultLanding = "/scanner"

type ScreenData struct {
	Username string
	Error    string
	Status   string
}

// loginForm is the submitted sign-in form. Limits match priceapi.Credentials.
type loginForm struct {
	Username string `validate:"required,max=128"`
	Password string `validate:"notblank,max=256"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}
