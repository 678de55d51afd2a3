package context

import (
	"context"

	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/priceapi"
)

type deviceKey struct{}
type userKey struct{}
type storeKey struct{}

func NewContextWithDevice(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceKey{}, deviceID)
}

func GetDeviceFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceKey{}).(string)
	return id, ok && id != ""
}

func NewContextWithUser(ctx context.Context, status priceapi.AuthStatus) context.Context {
	return context.WithValue(ctx, userKey{}, status)
}

func GetUserFromContext(ctx context.Context) (priceapi.AuthStatus, bool) {
	s, ok := ctx.Value(userKey{}).(priceapi.AuthStatus)
	return s, ok
}

// NewContextWithCart attaches the request's cart store so the layout and the
// page share one load of the durable record.
func NewContextWithCart(ctx context.Context, store *cartstore.Store) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

func GetCartFromContext(ctx context.Context) (*cartstore.Store, bool) {
	s, ok := ctx.Value(storeKey{}).(*cartstore.Store)
	return s, ok && s != nil
}
