package cartstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Recorder receives cart operation outcomes for metrics.
type Recorder interface {
	CartMutation(op string, ok bool)
	StorageFailure(op string)
}

type noopRecorder struct{}

func (noopRecorder) CartMutation(string, bool) {}
func (noopRecorder) StorageFailure(string)     {}

// Store is the authoritative cart for one page load. Every successful
// mutation is written to durable storage before the change is broadcast.
type Store struct {
	mu        sync.Mutex
	lines     []Line
	version   uint64
	persisted bool

	storage     Storage
	key         string
	origin      string
	broadcaster *Broadcaster
	recorder    Recorder
	log         zerolog.Logger
	now         func() time.Time
}

type Option func(*Store)

// WithKey sets the durable storage key. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// WithOrigin names the writer (tab) in change notifications. Defaults to a
// random uuid.
func WithOrigin(origin string) Option {
	return func(s *Store) {
		if strings.TrimSpace(origin) != "" {
			s.origin = origin
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithBroadcaster(b *Broadcaster) Option {
	return func(s *Store) {
		if b != nil {
			s.broadcaster = b
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Open reads the cart record from storage. A missing, unreadable or malformed
// record yields an empty cart.
func Open(ctx context.Context, storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		key:      DefaultKey,
		origin:   uuid.NewString(),
		recorder: noopRecorder{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.broadcaster == nil {
		s.broadcaster = NewBroadcaster(s.log)
	}
	s.log = s.log.With().Str("cart_key", s.key).Str("origin", s.origin).Logger()
	s.persisted = s.storage != nil
	lines, err := s.load(ctx)
	if err != nil {
		lines = []Line{}
	}
	s.lines = lines
	return s
}

// load reads the record. A missing or malformed record is an empty cart; only
// a failed read returns an error.
func (s *Store) load(ctx context.Context) ([]Line, error) {
	if s.storage == nil {
		return []Line{}, nil
	}
	data, err := s.storage.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return []Line{}, nil
	}
	if err != nil {
		s.recorder.StorageFailure("load")
		s.log.Warn().Err(err).Msg("cart.load.failed")
		return nil, err
	}
	lines, err := decodeLines(data, s.now())
	if err != nil {
		s.log.Warn().Err(err).Msg("cart.load.malformed")
		return []Line{}, nil
	}
	return lines, nil
}

// Key returns the durable storage key.
func (s *Store) Key() string { return s.key }

// Origin returns the writer id used in change notifications.
func (s *Store) Origin() string { return s.origin }

// Persisted reports whether the last write reached durable storage.
func (s *Store) Persisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// Cart returns a copy of all lines in insertion order.
func (s *Store) Cart() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Line returns a copy of the line for barcode.
func (s *Store) Line(barcode string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(strings.TrimSpace(barcode)); i >= 0 {
		return cloneLine(s.lines[i]), true
	}
	return Line{}, false
}

// Count returns the sum of all quantities.
func (s *Store) Count() (count int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("cart.count.failed")
			count = 0
		}
	}()
	s.mu.Lock()
	defer s.mu.Unlock()
	return countLines(s.lines)
}

// Total returns the sum of price × quantity.
func (s *Store) Total() (total decimal.Decimal) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("cart.total.failed")
			total = decimal.Zero
		}
	}()
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalLines(s.lines)
}

// Snapshot returns the current state without broadcasting it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddProduct merges qty into the line for p.Barcode, creating it if needed.
func (s *Store) AddProduct(ctx context.Context, p Product, qty int) bool {
	barcode := strings.TrimSpace(p.Barcode)
	if barcode == "" || qty < 1 {
		s.recorder.CartMutation("add", false)
		return false
	}

	s.mu.Lock()
	if i := s.indexLocked(barcode); i >= 0 {
		s.lines[i].Quantity = addQuantity(s.lines[i].Quantity, qty)
	} else {
		s.lines = append(s.lines, newLine(p, qty, s.now()))
	}
	snap := s.commitLocked(ctx, "add")
	s.mu.Unlock()

	s.broadcaster.Publish(snap)
	return true
}

// RemoveProduct drops the line for barcode. It reports false when there was
// nothing to remove.
func (s *Store) RemoveProduct(ctx context.Context, barcode string) bool {
	barcode = strings.TrimSpace(barcode)

	s.mu.Lock()
	i := s.indexLocked(barcode)
	if i < 0 {
		s.mu.Unlock()
		s.recorder.CartMutation("remove", false)
		return false
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	snap := s.commitLocked(ctx, "remove")
	s.mu.Unlock()

	s.broadcaster.Publish(snap)
	return true
}

// UpdateQuantity replaces the quantity of an existing line. A quantity of
// zero or less removes the line. Stock is not enforced here.
func (s *Store) UpdateQuantity(ctx context.Context, barcode string, qty int) bool {
	if qty <= 0 {
		return s.RemoveProduct(ctx, barcode)
	}
	barcode = strings.TrimSpace(barcode)

	s.mu.Lock()
	i := s.indexLocked(barcode)
	if i < 0 {
		s.mu.Unlock()
		s.recorder.CartMutation("update", false)
		return false
	}
	s.lines[i].Quantity = clampQuantity(qty)
	snap := s.commitLocked(ctx, "update")
	s.mu.Unlock()

	s.broadcaster.Publish(snap)
	return true
}

// ClearCart empties the cart. It always succeeds.
func (s *Store) ClearCart(ctx context.Context) bool {
	s.mu.Lock()
	s.lines = []Line{}
	snap := s.commitLocked(ctx, "clear")
	s.mu.Unlock()

	s.broadcaster.Publish(snap)
	return true
}

// Subscribe registers fn for every committed change.
func (s *Store) Subscribe(fn Listener) func() {
	return s.broadcaster.Subscribe(fn)
}

// SetBadge registers the count badge and renders the current count into it.
func (s *Store) SetBadge(b Badge) {
	s.broadcaster.SetBadge(b)
	if b != nil {
		b.SetText(BadgeText(s.Count()))
	}
}

// Reload re-reads durable storage and broadcasts the result. When the read
// fails the current lines stay and nothing is broadcast.
func (s *Store) Reload(ctx context.Context) {
	lines, err := s.load(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.lines = lines
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcaster.Publish(snap)
}

// Watch follows writes made to the same record by other origins and
// re-runs the notification path for each of them. It blocks until ctx is
// done.
func (s *Store) Watch(ctx context.Context) error {
	run, err := s.Follow(ctx)
	if err != nil {
		return err
	}
	return run()
}

// Follow subscribes to the storage change feed and returns the loop that
// applies it. Changes written after Follow returns are never missed, so a
// caller can subscribe first and start the loop on its own goroutine.
func (s *Store) Follow(ctx context.Context) (func() error, error) {
	w, ok := s.storage.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	changes, err := w.Watch(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case change, ok := <-changes:
				if !ok {
					return nil
				}
				if change.Origin == s.origin {
					continue
				}
				s.log.Debug().Str("writer", change.Origin).Msg("cart.external.change")
				s.Reload(ctx)
			}
		}
	}, nil
}

func (s *Store) commitLocked(ctx context.Context, op string) Snapshot {
	s.version++
	s.persisted = s.writeLocked(ctx, op)
	s.recorder.CartMutation(op, true)
	return s.snapshotLocked()
}

func (s *Store) writeLocked(ctx context.Context, op string) bool {
	if s.storage == nil {
		return false
	}
	data, err := encodeLines(s.lines)
	if err == nil {
		err = s.storage.Save(ctx, s.key, data, s.origin)
	}
	if err != nil {
		// The in-memory cart stays authoritative for this page load.
		s.recorder.StorageFailure(op)
		s.log.Warn().Err(err).Str("op", op).Msg("cart.persist.failed")
		return false
	}
	return true
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version: s.version,
		Lines:   cloneLines(s.lines),
		Count:   countLines(s.lines),
		Total:   totalLines(s.lines),
	}
}

func (s *Store) indexLocked(barcode string) int {
	if barcode == "" {
		return -1
	}
	for i := range s.lines {
		if s.lines[i].Barcode == barcode {
			return i
		}
	}
	return -1
}

func countLines(lines []Line) int {
	count := 0
	for _, l := range lines {
		if l.Quantity > 0 {
			count += l.Quantity
		}
	}
	return count
}

func totalLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
