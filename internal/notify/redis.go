package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lehuagavin/genslides/internal/id"
)

// DefaultChannel is the pub/sub channel shared by all server processes.
const DefaultChannel = "genslides:events"

// envelope is the cross-process wire form of an Event.
type envelope struct {
	Origin string          `json:"origin"`
	Slug   string          `json:"slug"`
	Type   EventType       `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RedisBridge relays hub events through Redis pub/sub so listeners attached to
// any process see events published by every process. Events a process
// published itself are ignored on receipt.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	logger  *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRedisBridge connects to redisURL and verifies the connection.
func NewRedisBridge(redisURL string, hub *Hub, logger *slog.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBridgeWithClient(client, hub, logger), nil
}

// NewRedisBridgeWithClient creates a bridge from an existing client.
func NewRedisBridgeWithClient(client *redis.Client, hub *Hub, logger *slog.Logger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: DefaultChannel,
		origin:  id.MustGenerate("node"),
		hub:     hub,
		logger:  logger,
	}
}

// Forward implements Relay.
func (b *RedisBridge) Forward(ctx context.Context, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	msg, err := json.Marshal(envelope{
		Origin: b.origin,
		Slug:   event.Slug,
		Type:   event.Type,
		Data:   data,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Start subscribes to the channel and delivers remote events to the hub until
// Shutdown. It returns once the subscription is confirmed.
func (b *RedisBridge) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()
		b.consume(ctx, pubsub.Channel())
	}()

	b.logger.Info("redis notification bridge started", "channel", b.channel, "origin", b.origin)
	return nil
}

func (b *RedisBridge) consume(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("discarding malformed relayed event", "error", err)
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			var data any
			if len(env.Data) > 0 && string(env.Data) != "null" {
				data = env.Data
			}
			b.hub.Deliver(Event{Type: env.Type, Slug: env.Slug, Data: data})
		}
	}
}

// Shutdown stops consuming and closes the client.
func (b *RedisBridge) Shutdown(_ context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return b.client.Close()
}
