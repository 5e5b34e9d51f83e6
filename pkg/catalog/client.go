package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides resource-scoped Redis operations for the published catalog.
// All keys and channels are automatically namespaced with the resource name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	resourceName string
}

// NewClient creates a new catalog client for the specified resource.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - resourceName: resource identifier (must not be empty)
//
// Returns an error if resourceName is empty.
func NewClient(redisOpts *redis.Options, resourceName string) (*Client, error) {
	if resourceName == "" {
		return nil, fmt.Errorf("resource name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		resourceName: resourceName,
	}, nil
}

// ResourceName returns the resource this client publishes for.
func (c *Client) ResourceName() string {
	return c.resourceName
}

// RedisClient exposes the underlying Redis client for scans.
func (c *Client) RedisClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PublishEntry writes a record to Redis, indexes it by handle and publishes an event.
// The record hash expires after the record's validity when validity is positive.
//
// Writing the same entry twice is safe: the hash is overwritten in place.
func (c *Client) PublishEntry(ctx context.Context, e *Entry) error {
	if e == nil || e.Record == nil {
		return fmt.Errorf("invalid entry: record is required")
	}
	if err := e.Record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	for _, h := range e.Handles {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("invalid handle: %w", err)
		}
	}

	hash, err := RecordToHash(e.Record, e.Handles)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	key := RecordKey(c.resourceName, e.Record.ID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, hash)
		if e.Record.Validity > 0 {
			pipe.Expire(ctx, key, e.Record.Validity)
		}
		for _, h := range e.Handles {
			handleKey := HandleKey(c.resourceName, h.Value)
			pipe.SAdd(ctx, handleKey, e.Record.ID)
			if e.Record.Validity > 0 {
				pipe.Expire(ctx, handleKey, e.Record.Validity)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write record to Redis: %w", err)
	}

	entryJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal record for event: %w", err)
	}

	channel := RecordEventsChannel(c.resourceName)
	if err := c.rdb.Publish(ctx, channel, entryJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish record event: %w", err)
	}

	return nil
}

// RunSummary describes the last catalog publication for a resource.
type RunSummary struct {
	Records       int   `json:"records"`
	PublishedAtMs int64 `json:"published_at_ms"`
}

// PublishCatalog publishes every entry in order and records a run summary.
// Publication stops at the first failing entry.
func (c *Client) PublishCatalog(ctx context.Context, entries []*Entry) (*RunSummary, error) {
	for _, e := range entries {
		if err := c.PublishEntry(ctx, e); err != nil {
			return nil, err
		}
	}

	summary := &RunSummary{
		Records:       len(entries),
		PublishedAtMs: time.Now().UnixMilli(),
	}

	err := c.rdb.HSet(ctx, RunKey(c.resourceName), map[string]interface{}{
		"records":         summary.Records,
		"published_at_ms": summary.PublishedAtMs,
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to write run summary: %w", err)
	}

	return summary, nil
}

// LastRun returns the summary of the last publication.
// Returns (nil, redis.Nil) if nothing has been published for the resource.
func (c *Client) LastRun(ctx context.Context) (*RunSummary, error) {
	hashData, err := c.rdb.HGetAll(ctx, RunKey(c.resourceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	records, _ := strconv.Atoi(hashData["records"])
	publishedAtMs, _ := strconv.ParseInt(hashData["published_at_ms"], 10, 64)

	return &RunSummary{Records: records, PublishedAtMs: publishedAtMs}, nil
}

// GetEntry retrieves a record and its handles by record ID.
// Returns (nil, redis.Nil) if the record doesn't exist.
func (c *Client) GetEntry(ctx context.Context, recordID string) (*Entry, error) {
	hashData, err := c.rdb.HGetAll(ctx, RecordKey(c.resourceName, recordID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read record from Redis: %w", err)
	}

	// HGetAll returns an empty map for missing keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	entry, err := HashToEntry(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}

	return entry, nil
}

// RecordExists checks if a record exists without fetching it.
func (c *Client) RecordExists(ctx context.Context, recordID string) (bool, error) {
	exists, err := c.rdb.Exists(ctx, RecordKey(c.resourceName, recordID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return exists > 0, nil
}

// ScanRecordIDs returns the IDs of all records whose ID starts with prefix.
// An empty prefix returns every record of the resource.
func (c *Client) ScanRecordIDs(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := RecordKeyPrefix(c.resourceName)
	iter := c.rdb.Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	return ids, nil
}

// RecordIDsForHandle returns the IDs of the records published under a handle value.
func (c *Client) RecordIDsForHandle(ctx context.Context, handleValue string) ([]string, error) {
	ids, err := c.rdb.SMembers(ctx, HandleKey(c.resourceName, handleValue)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read handle index: %w", err)
	}
	return ids, nil
}

// Subscription represents an active Pub/Sub subscription to record events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Entry
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of published entries.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Entry {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors; the offending message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeRecordEvents subscribes to record publication events for this resource.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once, so a slow subscriber may miss events.
func (c *Client) SubscribeRecordEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, RecordEventsChannel(c.resourceName))

	// Wait for the subscription to be confirmed so no event published right
	// after this call returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to record events: %w", err)
	}

	eventsChan := make(chan *Entry, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var entry Entry
				if err := json.Unmarshal([]byte(msg.Payload), &entry); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal record event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &entry:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
