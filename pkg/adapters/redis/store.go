package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/foldtable/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store and the locker.
const DefaultPrefix = "foldtable:stream:"

// Store implements ports.SnapshotStore using Redis.
type Store struct {
	client       *backend.Client
	prefix       string
	ttl          time.Duration
	versionCheck bool
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration for snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for snapshots.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithVersionCheck makes Save reject snapshots older than the stored one.
func WithVersionCheck() Option {
	return func(s *Store) {
		s.versionCheck = true
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(streamID string) string {
	return s.prefix + streamID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// saveScript writes the snapshot hash, refreshes its TTL and indexes the stream.
// With ARGV[6] == "1" it refuses a version lower than the stored one and returns 0.
var saveScript = backend.NewScript(`
if ARGV[6] == "1" then
	local current = tonumber(redis.call("hget", KEYS[1], "version"))
	if current and tonumber(ARGV[1]) < current then
		return 0
	end
end
redis.call("hset", KEYS[1], "version", ARGV[1], "data", ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("pexpire", KEYS[1], ARGV[3])
else
	redis.call("persist", KEYS[1])
end
redis.call("zadd", KEYS[2], ARGV[4], ARGV[5])
return 1
`)

// Save persists the snapshot to Redis as a hash holding its version and JSON body.
// With WithVersionCheck a snapshot older than the stored one fails with
// domain.ErrStaleSnapshot and nothing is written.
func (s *Store) Save(ctx context.Context, streamID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Index entries are scored by expiry so List can prune lazily.
	score := time.Now().Add(s.ttl).Unix()
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	check := "0"
	if s.versionCheck {
		check = "1"
	}

	written, err := saveScript.Run(ctx, s.client,
		[]string{s.key(streamID), s.indexKey()},
		snap.Version, data, s.ttl.Milliseconds(), score, streamID, check,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("%w: %q is past version %d", domain.ErrStaleSnapshot, streamID, snap.Version)
	}

	return nil
}

// Load retrieves the snapshot from Redis.
func (s *Store) Load(ctx context.Context, streamID string) (*domain.Snapshot, error) {
	val, err := s.client.HGet(ctx, s.key(streamID), "data").Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrStreamNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Version returns the stored version of a stream without decoding its state.
func (s *Store) Version(ctx context.Context, streamID string) (int64, error) {
	v, err := s.client.HGet(ctx, s.key(streamID), "version").Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, domain.ErrStreamNotFound
		}
		return 0, fmt.Errorf("failed to get version from redis: %w", err)
	}
	return v, nil
}

// Delete removes the snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, streamID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(streamID))
	pipe.ZRem(ctx, s.indexKey(), streamID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns live stream IDs, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired streams: %w", err)
	}

	streams, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}

	return streams, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
