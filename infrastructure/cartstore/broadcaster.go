package cartstore

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Snapshot is the cart state handed to listeners after a committed change.
type Snapshot struct {
	Version uint64
	Lines   []Line
	Count   int
	Total   decimal.Decimal
}

// Listener reacts to a committed cart change.
type Listener func(Snapshot)

// Badge is the single shared count display.
type Badge interface {
	SetText(text string)
}

// BadgeText renders the badge label. Zero renders as "0"; the badge is never
// hidden.
func BadgeText(count int) string {
	if count < 0 {
		count = 0
	}
	return strconv.Itoa(count)
}

type subscription struct {
	id int
	fn Listener
}

// Broadcaster fans committed snapshots out to the badge and any number of
// listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	badge     Badge
	listeners []subscription
	nextID    int
	log       zerolog.Logger
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{log: log}
}

// SetBadge registers the badge, replacing any previous one. nil unregisters.
func (b *Broadcaster) SetBadge(badge Badge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.badge = badge
}

// Subscribe adds fn and returns a func that removes it.
func (b *Broadcaster) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.listeners {
				if sub.id == id {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish updates the badge first, then calls listeners in subscription order.
func (b *Broadcaster) Publish(snap Snapshot) {
	b.mu.RLock()
	badge := b.badge
	listeners := make([]subscription, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	if badge != nil {
		b.safely("badge", func() { badge.SetText(BadgeText(snap.Count)) })
	}
	for _, sub := range listeners {
		fn := sub.fn
		b.safely("listener", func() { fn(snap) })
	}
}

func (b *Broadcaster) safely(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("kind", kind).Interface("panic", r).Msg("cart.broadcast.panic")
		}
	}()
	fn()
}

// TextBadge is a Badge that remembers the last rendered label.
type TextBadge struct {
	mu   sync.Mutex
	text string
}

func (t *TextBadge) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
}

func (t *TextBadge) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}
