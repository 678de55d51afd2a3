package cartstore

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBadgeText(t *testing.T) {
	assert.Equal(t, "0", BadgeText(0))
	assert.Equal(t, "0", BadgeText(-2))
	assert.Equal(t, "17", BadgeText(17))
}

func TestBroadcaster_PanickingListenerDoesNotStopOthers(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	var got []int
	b.Subscribe(func(Snapshot) { panic("boom") })
	b.Subscribe(func(s Snapshot) { got = append(got, s.Count) })

	b.Publish(Snapshot{Count: 4})
	assert.Equal(t, []int{4}, got)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	calls := 0
	unsubscribe := b.Subscribe(func(Snapshot) { calls++ })

	b.Publish(Snapshot{})
	unsubscribe()
	unsubscribe()
	b.Publish(Snapshot{})
	assert.Equal(t, 1, calls)
}

func TestBroadcaster_BadgeUpdatedBeforeListeners(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	badge := &TextBadge{}
	b.SetBadge(badge)

	var seenByListener string
	b.Subscribe(func(Snapshot) { seenByListener = badge.Text() })
	b.Publish(Snapshot{Count: 0})

	assert.Equal(t, "0", seenByListener)

	b.SetBadge(nil)
	b.Publish(Snapshot{Count: 9})
	assert.Equal(t, "0", badge.Text())
}
