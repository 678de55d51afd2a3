package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescanner/infrastructure/cartstore"
)

type mockCmdable struct {
	data       map[string]string
	published  []publishCall
	publishErr error
	feeds      map[string]chan *redis.Message
	lastMatch  string
}

type publishCall struct {
	channel string
	message string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:  make(map[string]string),
		feeds: make(map[string]chan *redis.Message),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	if m.publishErr != nil {
		return redis.NewIntResult(0, m.publishErr)
	}
	m.published = append(m.published, publishCall{channel: channel, message: fmt.Sprint(message)})
	if feed, ok := m.feeds[channel]; ok {
		feed <- &redis.Message{Channel: channel, Payload: fmt.Sprint(message)}
	}
	return redis.NewIntResult(1, nil)
}

var globUnescaper = strings.NewReplacer(`\\`, `\`, `\*`, `*`, `\?`, `?`, `\[`, `[`, `\]`, `]`)

func (m *mockCmdable) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	m.lastMatch = match
	prefix := globUnescaper.Replace(strings.TrimSuffix(match, "*"))
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (m *mockCmdable) subscribe(_ context.Context, channel string) (<-chan *redis.Message, func() error, error) {
	feed := make(chan *redis.Message, 4)
	m.feeds[channel] = feed
	return feed, func() error { return nil }, nil
}

func newTestStorage(mock *mockCmdable) *CartStorage {
	return &CartStorage{store: mock, subscribe: mock.subscribe, log: zerolog.Nop()}
}

func TestCartStorageLoadMissing(t *testing.T) {
	storage := newTestStorage(newMockCmdable())
	_, err := storage.Load(context.Background(), "priceScanner_cart/dev")
	assert.ErrorIs(t, err, cartstore.ErrNotFound)
}

func TestCartStorageSavePublishesOrigin(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	storage := newTestStorage(mock)

	require.NoError(t, storage.Save(ctx, "priceScanner_cart/dev", []byte(`[]`), "tab-a"))

	data, err := storage.Load(ctx, "priceScanner_cart/dev")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	require.Len(t, mock.published, 1)
	assert.Equal(t, "pricescanner:changes:priceScanner_cart/dev", mock.published[0].channel)
	assert.Equal(t, "tab-a", mock.published[0].message)
}

func TestCartStorageSaveSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.publishErr = errors.New("pubsub down")
	storage := newTestStorage(mock)

	require.NoError(t, storage.Save(ctx, "k", []byte(`[]`), "tab-a"))
	_, err := storage.Load(ctx, "k")
	assert.NoError(t, err)
}

func TestCartStorageWatchForwardsChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mock := newMockCmdable()
	storage := newTestStorage(mock)
	key := cartstore.DeviceKey("dev")

	changes, err := storage.Watch(ctx, key)
	require.NoError(t, err)
	require.NoError(t, storage.Save(ctx, key, []byte(`[]`), "tab-b"))

	select {
	case change := <-changes:
		assert.Equal(t, cartstore.Change{Key: key, Origin: "tab-b"}, change)
	case <-time.After(time.Second):
		t.Fatal("no change forwarded")
	}

	cancel()
	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}

func TestCartStorageBacksStoreAcrossTabs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mock := newMockCmdable()
	storage := newTestStorage(mock)
	key := cartstore.DeviceKey("dev")

	tabA := cartstore.Open(ctx, storage, cartstore.WithKey(key), cartstore.WithOrigin("tab-a"))
	tabB := cartstore.Open(ctx, storage, cartstore.WithKey(key), cartstore.WithOrigin("tab-b"))
	seen := make(chan int, 1)
	tabA.Subscribe(func(s cartstore.Snapshot) { seen <- s.Count })

	changes, err := storage.Watch(ctx, key)
	require.NoError(t, err)
	go func() {
		for change := range changes {
			if change.Origin != tabA.Origin() {
				tabA.Reload(ctx)
			}
		}
	}()

	require.True(t, tabB.AddProduct(ctx, cartstore.Product{Barcode: "A1", Price: 1}, 3))
	select {
	case count := <-seen:
		assert.Equal(t, 3, count)
	case <-time.After(time.Second):
		t.Fatal("tab A was not refreshed")
	}
}

func TestKeysStripsNamespace(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	storage := newTestStorage(mock)
	require.NoError(t, storage.Save(ctx, cartstore.DeviceKey("a"), []byte(`[]`), "cli"))
	require.NoError(t, storage.Save(ctx, "other", []byte(`[]`), "cli"))

	keys, err := storage.Keys(ctx, cartstore.DefaultKey+"/")
	require.NoError(t, err)
	assert.Equal(t, []string{cartstore.DeviceKey("a")}, keys)
}

func TestKeysMatchesPrefixLiterally(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	storage := newTestStorage(mock)
	require.NoError(t, storage.Save(ctx, "cart*[1]/a", []byte(`[]`), "cli"))
	require.NoError(t, storage.Save(ctx, "cartX1/b", []byte(`[]`), "cli"))

	keys, err := storage.Keys(ctx, "cart*[1]/")
	require.NoError(t, err)
	assert.Equal(t, []string{"cart*[1]/a"}, keys)
	assert.Equal(t, `pricescanner:record:cart\*\[1\]/*`, mock.lastMatch)
}

func TestKeyBuilders(t *testing.T) {
	storage := &CartStorage{}
	assert.Equal(t, "pricescanner:record:k", storage.RecordKey("k"))
	assert.Equal(t, "pricescanner:changes:k", storage.ChannelKey("k"))
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(context.Background(), "", zerolog.Nop())
	assert.Error(t, err)
	_, err = New(context.Background(), "::not a url", zerolog.Nop())
	assert.Error(t, err)
}
