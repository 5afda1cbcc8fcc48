package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultKeyPrefix   = "contest:progress"
	defaultLockTTL     = 10 * time.Second
	defaultLockRetries = 20
	defaultLockBackoff = 25 * time.Millisecond
)

// RedisStoreOptions configures the Redis-backed progress store.
type RedisStoreOptions struct {
	KeyPrefix   string
	LockTTL     time.Duration
	LockRetries int
	LockBackoff time.Duration
}

// RedisStore persists progress documents in Redis. The document lives in a
// hash: "final_score" is a plain integer field so score updates go through
// HINCRBY, everything else is one JSON blob written under a per-user lock.
// Mutations publish the full fresh document on the user's pub/sub channel.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
	opts   RedisStoreOptions
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a progress store backed by Redis.
func NewRedisStore(client *redis.Client, logger zerolog.Logger, opts RedisStoreOptions) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.LockRetries <= 0 {
		opts.LockRetries = defaultLockRetries
	}
	if opts.LockBackoff <= 0 {
		opts.LockBackoff = defaultLockBackoff
	}
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "progress_store").Logger(),
		opts:   opts,
	}
}

func (s *RedisStore) docKey(key string) string {
	return fmt.Sprintf("%s:doc:%s", s.opts.KeyPrefix, key)
}

func (s *RedisStore) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", s.opts.KeyPrefix, key)
}

func (s *RedisStore) channel(key string) string {
	return fmt.Sprintf("%s:updates:%s", s.opts.KeyPrefix, key)
}

// Read returns the current document or ErrNotFound.
func (s *RedisStore) Read(ctx context.Context, key string) (*UserProgress, error) {
	fields, err := s.client.HGetAll(ctx, s.docKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return composeDoc(fields)
}

// Init creates the document exactly once. The hash fields are written in a
// single MULTI/EXEC so a concurrent reader never observes a partial document.
func (s *RedisStore) Init(ctx context.Context, key string, doc *UserProgress) error {
	unlock, err := s.acquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	exists, err := s.client.Exists(ctx, s.docKey(key)).Result()
	if err != nil {
		return fmt.Errorf("check progress existence: %w", err)
	}
	if exists > 0 {
		return ErrAlreadyExists
	}

	if err := s.writeDoc(ctx, key, doc); err != nil {
		return err
	}
	s.publish(ctx, key, doc)
	s.logger.Info().Str("key", key).Int("levels", doc.NoOfLevels).Msg("progress document initialized")
	return nil
}

// Update locks the document, re-reads the freshest state, applies mutate and
// persists the result. FinalScore is pinned across the write: it only moves
// through IncrementScore.
func (s *RedisStore) Update(ctx context.Context, key string, mutate func(doc *UserProgress) error) (*UserProgress, error) {
	unlock, err := s.acquireLock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	score := doc.FinalScore
	if err := mutate(doc); err != nil {
		return nil, err
	}
	doc.FinalScore = score

	if err := s.writeDoc(ctx, key, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, key, doc)
	return doc, nil
}

// IncrementScore atomically adds delta to finalScore via HINCRBY. The
// snapshot publish runs under the per-user lock so subscribers observe
// score and document snapshots in write order.
func (s *RedisStore) IncrementScore(ctx context.Context, key string, delta int) (int, error) {
	total, err := s.client.HIncrBy(ctx, s.docKey(key), "final_score", int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment score: %w", err)
	}

	unlock, err := s.acquireLock(ctx, key)
	if err != nil {
		// The increment is already applied; the next locked mutation will
		// publish a snapshot carrying it.
		s.logger.Warn().Err(err).Str("key", key).Msg("skip score snapshot publish")
		return int(total), nil
	}
	defer unlock()

	if doc, err := s.Read(ctx, key); err == nil {
		s.publish(ctx, key, doc)
	}
	return int(total), nil
}

// Subscribe forwards full document snapshots published after every mutation.
func (s *RedisStore) Subscribe(ctx context.Context, key string, fn func(UserProgress)) (UnsubscribeFunc, error) {
	sub := s.client.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe progress updates: %w", err)
	}

	go func() {
		for msg := range sub.Channel() {
			var doc UserProgress
			if err := json.Unmarshal([]byte(msg.Payload), &doc); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("skip malformed progress update")
				continue
			}
			fn(doc)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Close(); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("close progress subscription")
			}
		})
	}, nil
}

// acquireLock takes the per-user document lock, retrying briefly before
// giving up with ErrConflict. The Lua unlock only deletes our own lock.
func (s *RedisStore) acquireLock(ctx context.Context, key string) (func(), error) {
	lockKey := s.lockKey(key)
	lockValue := uuid.New().String()

	for attempt := 0; attempt < s.opts.LockRetries; attempt++ {
		acquired, err := s.client.SetNX(ctx, lockKey, lockValue, s.opts.LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire progress lock: %w", err)
		}
		if acquired {
			unlock := func() {
				script := `
					if redis.call("get", KEYS[1]) == ARGV[1] then
						return redis.call("del", KEYS[1])
					else
						return 0
					end
				`
				if err := s.client.Eval(context.WithoutCancel(ctx), script, []string{lockKey}, lockValue).Err(); err != nil {
					s.logger.Warn().Err(err).Str("key", key).Msg("release progress lock")
				}
			}
			return unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.opts.LockBackoff):
		}
	}
	return nil, ErrConflict
}

func (s *RedisStore) writeDoc(ctx context.Context, key string, doc *UserProgress) error {
	body := doc.Clone()
	body.FinalScore = 0
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.docKey(key), "doc", data)
	pipe.HSetNX(ctx, s.docKey(key), "final_score", doc.FinalScore)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, key string, doc *UserProgress) {
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("marshal progress update")
		return
	}
	if err := s.client.Publish(ctx, s.channel(key), data).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("publish progress update")
	}
}

func composeDoc(fields map[string]string) (*UserProgress, error) {
	raw, ok := fields["doc"]
	if !ok {
		return nil, fmt.Errorf("progress hash missing doc field")
	}
	var doc UserProgress
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	if rawScore, ok := fields["final_score"]; ok {
		score, err := strconv.Atoi(rawScore)
		if err != nil {
			return nil, fmt.Errorf("parse final_score: %w", err)
		}
		doc.FinalScore = score
	}
	if doc.Levels == nil {
		doc.Levels = map[int]LevelProgress{}
	}
	return &doc, nil
}
