package broadcast

import (
	"context"

	"github.com/cskr/pubsub"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// Memory fans snapshots out inside the process.
type Memory struct {
	ps *pubsub.PubSub
}

func NewMemory() *Memory {
	return &Memory{
		ps: pubsub.New(subscriberBuffer),
	}
}

// Publish drops the snapshot for subscribers whose buffer is full.
func (that *Memory) Publish(_ context.Context, topic string, snapshot *entity.Snapshot) error {
	that.ps.TryPub(snapshot, topic)

	return nil
}

func (that *Memory) Subscribe(ctx context.Context, topic string) (<-chan *entity.Snapshot, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)

	messages := that.ps.Sub(topic)
	snapshots := make(chan *entity.Snapshot, subscriberBuffer)

	// Unsub has to run apart from the reader, which drains messages until pubsub closes it.
	go func() {
		<-ctx.Done()
		that.ps.Unsub(messages, topic)
	}()

	go func() {
		defer close(snapshots)

		for msg := range messages {
			snapshot, ok := msg.(*entity.Snapshot)
			if !ok {
				continue
			}

			select {
			case snapshots <- snapshot:
			case <-ctx.Done():
			}
		}
	}()

	return snapshots, cancel, nil
}

func (that *Memory) Close() error {
	that.ps.Shutdown()

	return nil
}
