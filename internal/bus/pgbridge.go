package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

const (
	notifyChannel = "generation_events"

	// Postgres caps NOTIFY payloads at 8000 bytes. Oversized event bodies
	// are dropped from remote delivery; the poll fallback covers consumers
	// that miss them, per the bus's best-effort contract.
	maxNotifyPayload = 7500
)

// PGBridge extends the in-process bus across processes with Postgres
// LISTEN/NOTIFY: the worker publishes locally and notifies, API processes
// run Listen and republish onto their local bus for SSE subscribers.
type PGBridge struct {
	pool   *pgxpool.Pool
	local  *Bus
	logger zerolog.Logger
}

// NewPGBridge wires a bridge over pool onto local.
func NewPGBridge(pool *pgxpool.Pool, local *Bus, logger zerolog.Logger) *PGBridge {
	return &PGBridge{pool: pool, local: local, logger: logger}
}

type notifyEnvelope struct {
	Channel string             `json:"channel"`
	Event   domain.StreamEvent `json:"event"`
}

// Publish delivers to local subscribers and notifies remote processes.
func (b *PGBridge) Publish(channel string, event domain.StreamEvent) {
	b.local.Publish(channel, event)

	payload, err := json.Marshal(notifyEnvelope{Channel: channel, Event: event})
	if err != nil {
		b.logger.Error().Err(err).Str("channel", channel).Msg("bus: encode notify payload failed")
		return
	}
	if len(payload) > maxNotifyPayload {
		if !event.Type.Terminal() {
			b.logger.Debug().Str("channel", channel).Str("type", string(event.Type)).
				Msg("bus: event too large for notify, remote subscribers rely on polling")
			return
		}
		// Terminal events must cross; strip the body rather than drop.
		slim := event
		slim.Data = nil
		payload, err = json.Marshal(notifyEnvelope{Channel: channel, Event: slim})
		if err != nil {
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, string(payload)); err != nil {
		b.logger.Warn().Err(err).Str("channel", channel).Msg("bus: notify failed")
	}
}

// Listen republishes remote notifications onto the local bus until ctx is
// done. Connection loss triggers reconnects with backoff; events published
// remotely during the gap are simply missed, which the poll fallback
// tolerates.
func (b *PGBridge) Listen(ctx context.Context) error {
	for {
		if err := b.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn().Err(err).Msg("bus: listen connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (b *PGBridge) listenOnce(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var envelope notifyEnvelope
		if err := json.Unmarshal([]byte(notification.Payload), &envelope); err != nil {
			b.logger.Warn().Err(err).Msg("bus: undecodable notification dropped")
			continue
		}
		b.local.Publish(envelope.Channel, envelope.Event)
	}
}

var _ domain.EventPublisher = (*PGBridge)(nil)
