package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// Redis fans snapshots out through Redis pub/sub, so every server instance sharing the
// Redis storage sees the updates.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
	}
}

func (that *Redis) Publish(ctx context.Context, topic string, snapshot *entity.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err = that.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

func (that *Redis) Subscribe(ctx context.Context, topic string) (<-chan *entity.Snapshot, context.CancelFunc, error) {
	sub := that.client.Subscribe(ctx, topic)

	// wait for the subscription confirmation so nothing published after return is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	snapshots := make(chan *entity.Snapshot, subscriberBuffer)

	go func() {
		defer close(snapshots)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var snapshot entity.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
					continue
				}

				select {
				case snapshots <- &snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return snapshots, cancel, nil
}

// Close is a no-op, the client belongs to the storage.
func (that *Redis) Close() error {
	return nil
}
