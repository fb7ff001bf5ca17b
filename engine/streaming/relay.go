package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
	"github.com/sethvargo/go-retry"
)

// ErrRelayClosed is returned by Handle after Close.
var ErrRelayClosed = errors.New("streaming: relay closed")

const (
	defaultChannelPrefix = "contentkit:stream:"
	pingBackoffBase      = 100 * time.Millisecond
	pingBackoffMax       = 2 * time.Second
)

// RedisRelay is a Handler that broadcasts every event as an Envelope on a
// per-stream pub/sub channel. Nothing is persisted.
type RedisRelay struct {
	client        redis.UniversalClient
	channelPrefix string
	streamID      string
	ownsClient    bool

	mu     sync.Mutex
	seq    int64
	closed bool
}

// RelayOptions controls relay behavior.
type RelayOptions struct {
	ChannelPrefix string
	// StreamID defaults to a fresh KSUID.
	StreamID string
}

// NewRedisRelay constructs a relay publishing through client.
func NewRedisRelay(client redis.UniversalClient, opts *RelayOptions) (*RedisRelay, error) {
	if client == nil {
		return nil, errors.New("streaming: redis client is required")
	}
	if opts == nil {
		opts = &RelayOptions{}
	}
	prefix := opts.ChannelPrefix
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	streamID := opts.StreamID
	if streamID == "" {
		streamID = ksuid.New().String()
	}
	return &RedisRelay{client: client, channelPrefix: prefix, streamID: streamID}, nil
}

// RelayFromConfig dials the configured Redis URL, retrying the initial ping
// with exponential backoff. Close releases the connection as well.
func RelayFromConfig(ctx context.Context, cfg *config.Config) (*RedisRelay, error) {
	if cfg == nil || cfg.Stream.Relay.RedisURL == "" {
		return nil, errors.New("streaming: relay redis url is not configured")
	}
	opt, err := redis.ParseURL(cfg.Stream.Relay.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("streaming: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := pingWithRetry(ctx, client, cfg.Stream.Relay.ConnectRetries); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("streaming: connect redis: %w", err)
	}
	relay, err := NewRedisRelay(client, &RelayOptions{ChannelPrefix: cfg.Stream.Relay.ChannelPrefix})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	relay.ownsClient = true
	return relay, nil
}

func pingWithRetry(ctx context.Context, client redis.UniversalClient, retries uint64) error {
	backoff := retry.WithMaxRetries(retries, retry.WithCappedDuration(pingBackoffMax, retry.NewExponential(pingBackoffBase)))
	log := logger.FromContext(ctx)
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			log.Debug("Redis ping failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (r *RedisRelay) StreamID() string { return r.streamID }

// Channel returns the pub/sub channel for this stream.
func (r *RedisRelay) Channel() string {
	return r.channelPrefix + r.streamID
}

// Handle publishes event with the next sequence number.
func (r *RedisRelay) Handle(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRelayClosed
	}
	envelope, err := NewEnvelope(r.seq+1, r.streamID, event, time.Now())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("streaming: marshal envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.Channel(), payload).Err(); err != nil {
		return fmt.Errorf("streaming: publish event: %w", err)
	}
	r.seq++
	return nil
}

// Close stops further publishing. The client is closed only when the relay
// created it.
func (r *RedisRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
