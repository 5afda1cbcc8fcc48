package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/contestkit/quiz-contest/pkg/http/ws"
)

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	RedisKeyPrefix string
}

// Service maintains the contest standings in Redis and emits updates over
// Pub/Sub. Members are progress document keys; scores are final scores, so
// the board stays consistent with the progress store by applying the same
// deltas.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	topN          int
	pubsubChannel string
	prefix        string
}

// NewService constructs a leaderboard service instance.
func NewService(rdb *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "contest:lb:updates"
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "contest:lb"
	}

	return &Service{
		redis:         rdb,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		topN:          topN,
		pubsubChannel: channel,
		prefix:        prefix,
	}
}

// RecordScore applies a score delta for a participant and publishes the
// refreshed standings. A zero delta still refreshes the username.
func (s *Service) RecordScore(ctx context.Context, key, username string, delta int) error {
	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, s.scoresKey(), float64(delta), key)
	pipe.HSet(ctx, s.metaKey(key), "username", username)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	go s.publishUpdate(context.WithoutCancel(ctx))
	return nil
}

// Top retrieves the current top N standings with ranks assigned.
func (s *Service) Top(ctx context.Context, limit int) ([]ws.LeaderboardEntry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.scoresKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]ws.LeaderboardEntry, 0, len(results))
	for i, z := range results {
		key, _ := z.Member.(string)
		username, err := s.redis.HGet(ctx, s.metaKey(key), "username").Result()
		if err != nil && err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("read leaderboard metadata failed")
		}
		entries = append(entries, ws.LeaderboardEntry{
			Rank:     i + 1,
			Key:      key,
			Username: username,
			Score:    int(z.Score),
		})
	}
	return entries, nil
}

func (s *Service) publishUpdate(ctx context.Context) {
	entries, err := s.Top(ctx, s.topN)
	if err != nil {
		s.logger.Warn().Err(err).Msg("collect leaderboard update failed")
		return
	}
	if len(entries) == 0 {
		return
	}

	payload := ws.LeaderboardUpdatePayload{
		Top:         entries,
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("marshal leaderboard update failed")
		return
	}
	if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("publish leaderboard update failed")
	}
}

// Channel returns the Pub/Sub channel standings updates are published on.
func (s *Service) Channel() string {
	return s.pubsubChannel
}

func (s *Service) scoresKey() string {
	return s.prefix + ":scores"
}

func (s *Service) metaKey(key string) string {
	return fmt.Sprintf("%s:meta:%s", s.prefix, key)
}
