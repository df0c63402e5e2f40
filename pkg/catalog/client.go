package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides namespace-scoped Redis operations for the catalog.
// All keys and channels are automatically namespaced with the studio namespace.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb       *redis.Client
	namespace string
	now       func() time.Time
}

var _ Store = (*Client)(nil)

// NewClient creates a new catalog client for the specified namespace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - namespace: studio namespace (must not be empty)
//
// Returns an error if namespace is empty.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
		now:       time.Now,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Namespace returns the studio namespace this client writes under.
func (c *Client) Namespace() string {
	return c.namespace
}

// RedisClient exposes the underlying go-redis client for scans and tests.
func (c *Client) RedisClient() *redis.Client {
	return c.rdb
}

// PutShow writes a show and adds it to the catalog index.
// CreatedAtMs is stamped on first write; UpdatedAtMs on every write.
func (c *Client) PutShow(ctx context.Context, show *Show) error {
	if err := show.Validate(); err != nil {
		return fmt.Errorf("invalid show: %w", err)
	}

	nowMs := c.now().UnixMilli()
	if show.CreatedAtMs == 0 {
		show.CreatedAtMs = nowMs
	}
	show.UpdatedAtMs = nowMs

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, ShowKey(c.namespace, show.ID), ShowToHash(show))
		pipe.SAdd(ctx, ShowsKey(c.namespace), show.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write show to Redis: %w", err)
	}

	return c.publish(ctx, ChangeEvent{ShowID: show.ID, Op: ChangeOpPut})
}

// GetShow retrieves a show by ID.
// Returns ErrNotFound if the show doesn't exist.
func (c *Client) GetShow(ctx context.Context, showID string) (*Show, error) {
	hashData, err := c.rdb.HGetAll(ctx, ShowKey(c.namespace, showID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read show from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, fmt.Errorf("show %s: %w", showID, ErrNotFound)
	}

	show, err := HashToShow(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize show: %w", err)
	}
	return show, nil
}

// ListShows returns every show in the namespace ordered by name.
// Index entries whose hash has disappeared are skipped.
func (c *Client) ListShows(ctx context.Context) ([]Show, error) {
	ids, err := c.rdb.SMembers(ctx, ShowsKey(c.namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read show index: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, ShowKey(c.namespace, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read shows: %w", err)
	}

	shows := make([]Show, 0, len(ids))
	for _, cmd := range cmds {
		hashData := cmd.Val()
		if len(hashData) == 0 {
			continue
		}
		show, err := HashToShow(hashData)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize show: %w", err)
		}
		shows = append(shows, *show)
	}

	sort.Slice(shows, func(i, j int) bool {
		if shows[i].Name != shows[j].Name {
			return shows[i].Name < shows[j].Name
		}
		return shows[i].ID < shows[j].ID
	})
	return shows, nil
}

// DeleteShow removes a show, its collection indexes and every document in them.
func (c *Client) DeleteShow(ctx context.Context, showID string) error {
	keys := []string{ShowKey(c.namespace, showID)}
	for _, collection := range AllCollections {
		indexKey := CollectionIndexKey(c.namespace, showID, collection)
		ids, err := c.rdb.SMembers(ctx, indexKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read %s index: %w", collection, err)
		}
		for _, id := range ids {
			keys = append(keys, DocumentKey(c.namespace, showID, collection, id))
		}
		keys = append(keys, indexKey)
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, ShowsKey(c.namespace), showID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete show: %w", err)
	}

	return c.publish(ctx, ChangeEvent{ShowID: showID, Op: ChangeOpDelete})
}

// Put writes a show-scoped document, indexes it under its show and publishes
// a change event. Validates the document before writing.
//
// The document is stored as a Redis hash at
// concepto:{namespace}:show:{show_id}:{collection}:{id}.
func (c *Client) Put(ctx context.Context, doc Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid %s document: %w", doc.Collection(), err)
	}

	hash, err := DocumentToHash(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	showID := doc.OwnerShowID()
	collection := doc.Collection()
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, DocumentKey(c.namespace, showID, collection, doc.DocumentID()), hash)
		pipe.SAdd(ctx, CollectionIndexKey(c.namespace, showID, collection), doc.DocumentID())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s document to Redis: %w", collection, err)
	}

	return c.publish(ctx, ChangeEvent{
		ShowID:     showID,
		Collection: collection,
		EntityID:   doc.DocumentID(),
		Op:         ChangeOpPut,
	})
}

// Delete removes a document from a show's collection.
// Deleting a missing document is not an error.
func (c *Client) Delete(ctx context.Context, collection Collection, showID, id string) error {
	if err := collection.Validate(); err != nil {
		return err
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, DocumentKey(c.namespace, showID, collection, id))
		pipe.SRem(ctx, CollectionIndexKey(c.namespace, showID, collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s document: %w", collection, err)
	}

	return c.publish(ctx, ChangeEvent{
		ShowID:     showID,
		Collection: collection,
		EntityID:   id,
		Op:         ChangeOpDelete,
	})
}

// GetDocument retrieves a single document of type T.
// Returns ErrNotFound if the document doesn't exist.
func GetDocument[T Document](ctx context.Context, c *Client, showID, id string) (T, error) {
	var zero T
	key := DocumentKey(c.namespace, showID, zero.Collection(), id)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return zero, fmt.Errorf("failed to read %s document from Redis: %w", zero.Collection(), err)
	}
	if len(hashData) == 0 {
		return zero, fmt.Errorf("%s %s: %w", zero.Collection(), id, ErrNotFound)
	}

	return HashToDocument[T](hashData)
}

// ListByShow reads every document of type T owned by showID.
// Documents are returned sorted by ID so repeated reads are stable.
func ListByShow[T Document](ctx context.Context, c *Client, showID string) ([]T, error) {
	var zero T
	collection := zero.Collection()

	ids, err := c.rdb.SMembers(ctx, CollectionIndexKey(c.namespace, showID, collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s index: %w", collection, err)
	}
	sort.Strings(ids)

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, DocumentKey(c.namespace, showID, collection, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s documents: %w", collection, err)
	}

	docs := make([]T, 0, len(ids))
	for _, cmd := range cmds {
		hashData := cmd.Val()
		// Index entry without a hash: deleted between SMEMBERS and HGETALL
		if len(hashData) == 0 {
			continue
		}
		doc, err := HashToDocument[T](hashData)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize %s document: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ListAssets returns the show's assets.
func (c *Client) ListAssets(ctx context.Context, showID string) ([]Asset, error) {
	return ListByShow[Asset](ctx, c, showID)
}

// ListEpisodes returns the show's episodes.
func (c *Client) ListEpisodes(ctx context.Context, showID string) ([]Episode, error) {
	return ListByShow[Episode](ctx, c, showID)
}

// ListEpisodeIdeas returns the show's episode ideas.
func (c *Client) ListEpisodeIdeas(ctx context.Context, showID string) ([]EpisodeIdea, error) {
	return ListByShow[EpisodeIdea](ctx, c, showID)
}

// ListGeneralIdeas returns the show's general ideas.
func (c *Client) ListGeneralIdeas(ctx context.Context, showID string) ([]GeneralIdea, error) {
	return ListByShow[GeneralIdea](ctx, c, showID)
}

// ListPlotThemes returns the show's plot themes.
func (c *Client) ListPlotThemes(ctx context.Context, showID string) ([]PlotTheme, error) {
	return ListByShow[PlotTheme](ctx, c, showID)
}

func (c *Client) publish(ctx context.Context, event ChangeEvent) error {
	event.OccurredAtMs = c.now().UnixMilli()
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	channel := ShowEventsChannel(c.namespace, event.ShowID)
	if err := c.rdb.Publish(ctx, channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to a show's change events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan ChangeEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of change events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - malformed messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeShowEvents subscribes to change events for one show.
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once, so a slow subscriber may miss events.
func (c *Client) SubscribeShowEvents(ctx context.Context, showID string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, ShowEventsChannel(c.namespace, showID))

	// Wait for the subscription to be confirmed so no event published after
	// this call returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to show events: %w", err)
	}

	eventsChan := make(chan ChangeEvent, 10)
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

				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- event:
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
