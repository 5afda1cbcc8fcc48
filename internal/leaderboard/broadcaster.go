package leaderboard

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/contestkit/quiz-contest/pkg/http/ws"
)

// Broadcaster listens for Pub/Sub standings updates and forwards them to
// every connected WebSocket client. Running it on each API instance keeps
// multi-instance deployments in sync.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a Pub/Sub powered standings broadcaster.
func NewBroadcaster(rdb *redis.Client, hub *ws.Hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = "contest:lb:updates"
	}
	return &Broadcaster{
		redis:   rdb,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "leaderboard_broadcaster").Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is
// cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt ws.LeaderboardUpdatePayload
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("decode leaderboard update failed")
		return
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("marshal leaderboard update failed")
		return
	}

	msg := ws.Message{
		Type:    ws.TypeLeaderboardUpdate,
		Payload: raw,
	}
	if err := b.hub.BroadcastAll(msg); err != nil {
		b.logger.Warn().Err(err).Msg("broadcast leaderboard update failed")
	}
}
