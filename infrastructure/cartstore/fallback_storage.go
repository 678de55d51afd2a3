package cartstore

import (
	"context"
	"sync"
)

// FallbackStorage serves a record from process memory once a durable write
// for its key has failed, until a later durable write for the same key
// succeeds. Save still reports the durable error so the store knows the
// change is not persisted.
type FallbackStorage struct {
	durable Storage
	pending *MemoryStorage

	mu   sync.Mutex
	held map[string]bool
}

func NewFallbackStorage(durable Storage) *FallbackStorage {
	return &FallbackStorage{
		durable: durable,
		pending: NewMemoryStorage(),
		held:    make(map[string]bool),
	}
}

// Held reports whether key currently lives only in memory.
func (f *FallbackStorage) Held(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[key]
}

func (f *FallbackStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if f.Held(key) {
		return f.pending.Load(ctx, key)
	}
	return f.durable.Load(ctx, key)
}

func (f *FallbackStorage) Save(ctx context.Context, key string, data []byte, origin string) error {
	err := f.durable.Save(ctx, key, data, origin)
	f.mu.Lock()
	if err == nil {
		if f.held[key] {
			delete(f.held, key)
			f.pending.Delete(key)
		}
		f.mu.Unlock()
		return nil
	}
	f.held[key] = true
	f.mu.Unlock()

	// Other tabs of the device reload from the held copy.
	_ = f.pending.Save(ctx, key, data, origin)
	return err
}

// Watch merges the durable change feed, when there is one, with changes to
// held records.
func (f *FallbackStorage) Watch(ctx context.Context, key string) (<-chan Change, error) {
	local, err := f.pending.Watch(ctx, key)
	if err != nil {
		return nil, err
	}
	w, ok := f.durable.(Watcher)
	if !ok {
		return local, nil
	}
	remote, err := w.Watch(ctx, key)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for local != nil || remote != nil {
			var (
				change Change
				open   bool
			)
			select {
			case <-ctx.Done():
				return
			case change, open = <-local:
				if !open {
					local = nil
					continue
				}
			case change, open = <-remote:
				if !open {
					remote = nil
					continue
				}
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
