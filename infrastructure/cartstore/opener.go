package cartstore

import (
	"context"
)

// Opener opens device-scoped stores that share one storage backend and one
// set of base options. A durable backend is wrapped in a FallbackStorage so a
// device keeps its cart across requests while writes fail.
type Opener struct {
	storage Storage
	opts    []Option
}

func NewOpener(storage Storage, opts ...Option) *Opener {
	switch storage.(type) {
	case nil, *MemoryStorage, *FallbackStorage:
	default:
		storage = NewFallbackStorage(storage)
	}
	return &Opener{storage: storage, opts: opts}
}

// Open loads the cart of deviceID. extra options apply after the base ones.
func (o *Opener) Open(ctx context.Context, deviceID string, extra ...Option) *Store {
	opts := make([]Option, 0, len(o.opts)+len(extra)+1)
	opts = append(opts, o.opts...)
	opts = append(opts, WithKey(DeviceKey(deviceID)))
	opts = append(opts, extra...)
	return Open(ctx, o.storage, opts...)
}
