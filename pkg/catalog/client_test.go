package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-resource")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func newTestEntry(name, version string) *Entry {
	record := &Record{
		ID:           uuid.New().String(),
		Name:         name,
		Version:      version,
		Description:  "test package",
		Keywords:     []string{"test"},
		Extension:    Extension{Categories: []string{"tools"}},
		PathHash:     "0123456789abcdef0123456789abcdef",
		Validity:     time.Hour,
		ResourceName: "test-resource",
		CreatedAtMs:  time.Now().UnixMilli(),
	}
	return &Entry{Record: record, Handles: []Handle{record.Handle()}}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-resource", client.ResourceName())
	})

	t.Run("rejects empty resource name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "resource name cannot be empty")
	})
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPublishEntry(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	t.Run("writes record hash with validity TTL", func(t *testing.T) {
		entry := newTestEntry("gcc", "9.2.0")

		err := client.PublishEntry(ctx, entry)
		require.NoError(t, err)

		key := RecordKey("test-resource", entry.Record.ID)
		assert.True(t, mr.Exists(key))
		assert.Equal(t, time.Hour, mr.TTL(key))
		assert.Equal(t, "gcc", mr.HGet(key, "name"))
	})

	t.Run("indexes record by handle", func(t *testing.T) {
		entry := newTestEntry("openmpi", "4.1.1")
		require.NoError(t, client.PublishEntry(ctx, entry))

		ids, err := client.RecordIDsForHandle(ctx, "openmpi/4.1.1")
		require.NoError(t, err)
		assert.Equal(t, []string{entry.Record.ID}, ids)
	})

	t.Run("keeps duplicate handles from different files", func(t *testing.T) {
		first := newTestEntry("python", "3.11")
		second := newTestEntry("python", "3.11")
		require.NoError(t, client.PublishEntry(ctx, first))
		require.NoError(t, client.PublishEntry(ctx, second))

		ids, err := client.RecordIDsForHandle(ctx, "python/3.11")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{first.Record.ID, second.Record.ID}, ids)
	})

	t.Run("zero validity never expires", func(t *testing.T) {
		entry := newTestEntry("cmake", "3.27")
		entry.Record.Validity = 0
		require.NoError(t, client.PublishEntry(ctx, entry))

		assert.Equal(t, time.Duration(0), mr.TTL(RecordKey("test-resource", entry.Record.ID)))
	})

	t.Run("rejects invalid record", func(t *testing.T) {
		entry := newTestEntry("", "1.0")
		err := client.PublishEntry(ctx, entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid record")
	})

	t.Run("rejects invalid handle", func(t *testing.T) {
		entry := newTestEntry("gcc", "1.0")
		entry.Handles = []Handle{{Kind: "rpm", Value: "gcc"}}
		err := client.PublishEntry(ctx, entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid handle")
	})

	t.Run("rejects nil entry", func(t *testing.T) {
		assert.Error(t, client.PublishEntry(ctx, nil))
	})

	t.Run("publishes event after write", func(t *testing.T) {
		sub, err := client.SubscribeRecordEvents(ctx)
		require.NoError(t, err)
		defer sub.Close()

		entry := newTestEntry("hdf5", "1.14")
		require.NoError(t, client.PublishEntry(ctx, entry))

		select {
		case received := <-sub.Events():
			assert.Equal(t, entry.Record.ID, received.Record.ID)
			assert.Equal(t, "hdf5/1.14", received.Handles[0].Value)
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for record event")
		}
	})
}

func TestGetEntry(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("retrieves existing record", func(t *testing.T) {
		entry := newTestEntry("gcc", "12.1")
		entry.Record.Extension.SupportContact = "help@example.org"
		require.NoError(t, client.PublishEntry(ctx, entry))

		got, err := client.GetEntry(ctx, entry.Record.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.Record.Name, got.Record.Name)
		assert.Equal(t, entry.Record.Version, got.Record.Version)
		assert.Equal(t, entry.Record.Validity, got.Record.Validity)
		assert.Equal(t, "help@example.org", got.Record.Extension.SupportContact)
		assert.Equal(t, entry.Handles, got.Handles)
	})

	t.Run("returns redis.Nil for missing record", func(t *testing.T) {
		_, err := client.GetEntry(ctx, uuid.New().String())
		assert.True(t, IsNotFound(err))
	})
}

func TestRecordExists(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	entry := newTestEntry("gcc", "9.2.0")
	require.NoError(t, client.PublishEntry(ctx, entry))

	exists, err := client.RecordExists(ctx, entry.Record.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.RecordExists(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScanRecordIDs(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	first := newTestEntry("gcc", "9.2.0")
	first.Record.ID = "aaaaaaaa-0000-4000-8000-000000000001"
	second := newTestEntry("gcc", "10.1.0")
	second.Record.ID = "aaaaaaaa-0000-4000-8000-000000000002"
	third := newTestEntry("cmake", "3.27")
	third.Record.ID = "bbbbbbbb-0000-4000-8000-000000000003"

	for _, e := range []*Entry{first, second, third} {
		require.NoError(t, client.PublishEntry(ctx, e))
	}

	ids, err := client.ScanRecordIDs(ctx, "aaaaaaaa")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.Record.ID, second.Record.ID}, ids)

	all, err := client.ScanRecordIDs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPublishCatalog(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("no run before publication", func(t *testing.T) {
		_, err := client.LastRun(ctx)
		assert.True(t, IsNotFound(err))
	})

	t.Run("publishes all entries and records a summary", func(t *testing.T) {
		entries := []*Entry{newTestEntry("gcc", "9.2.0"), newTestEntry("cmake", "3.27")}

		summary, err := client.PublishCatalog(ctx, entries)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Records)

		last, err := client.LastRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, summary.Records, last.Records)
		assert.Equal(t, summary.PublishedAtMs, last.PublishedAtMs)
	})

	t.Run("stops at first invalid entry", func(t *testing.T) {
		entries := []*Entry{newTestEntry("gcc", "9.2.0"), newTestEntry("", "1.0")}
		_, err := client.PublishCatalog(ctx, entries)
		assert.Error(t, err)
	})
}

func TestSubscribeRecordEvents(t *testing.T) {
	client, _ := setupTestClient(t)

	t.Run("cleanup on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		sub, err := client.SubscribeRecordEvents(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-sub.Events():
			assert.False(t, ok, "events channel should be closed")
		case <-time.After(1 * time.Second):
			t.Fatal("events channel not closed after cancel")
		}
		assert.NoError(t, sub.Close())
	})
}

func TestResourceNamespacing(t *testing.T) {
	mr := miniredis.RunT(t)

	alpha, err := NewClient(&redis.Options{Addr: mr.Addr()}, "alpha")
	require.NoError(t, err)
	defer alpha.Close()

	beta, err := NewClient(&redis.Options{Addr: mr.Addr()}, "beta")
	require.NoError(t, err)
	defer beta.Close()

	ctx := context.Background()
	entry := newTestEntry("gcc", "9.2.0")
	entry.Record.ResourceName = "alpha"
	require.NoError(t, alpha.PublishEntry(ctx, entry))

	_, err = beta.GetEntry(ctx, entry.Record.ID)
	assert.True(t, IsNotFound(err))

	ids, err := beta.ScanRecordIDs(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
