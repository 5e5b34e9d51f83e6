package hoard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/modcat/pkg/catalog"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) *catalog.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := catalog.NewClient(&redis.Options{Addr: mr.Addr()}, "test-resource")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func newEntry(id, name, version string, mutate func(*catalog.Record)) *catalog.Entry {
	record := &catalog.Record{
		ID:           id,
		Name:         name,
		Version:      version,
		Keywords:     []string{},
		Extension:    catalog.Extension{Categories: []string{}},
		PathHash:     "0123456789abcdef0123456789abcdef",
		Validity:     time.Hour,
		ResourceName: "test-resource",
		CreatedAtMs:  time.Now().UnixMilli(),
	}
	if mutate != nil {
		mutate(record)
	}
	return &catalog.Entry{Record: record, Handles: []catalog.Handle{record.Handle()}}
}

func publish(t *testing.T, client *catalog.Client, entries ...*catalog.Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, client.PublishEntry(context.Background(), e))
	}
}
