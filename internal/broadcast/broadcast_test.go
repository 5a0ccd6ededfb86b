package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/testing/suite"
)

const waitTimeout = 5 * time.Second

func receive(t *testing.T, snapshots <-chan *entity.Snapshot) *entity.Snapshot {
	t.Helper()

	select {
	case snapshot, ok := <-snapshots:
		require.True(t, ok, "subscription closed")
		return snapshot
	case <-time.After(waitTimeout):
		t.Fatal("no snapshot received")
		return nil
	}
}

func waitClosed(t *testing.T, snapshots <-chan *entity.Snapshot) {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-snapshots:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription was not closed")
		}
	}
}

func testBroadcaster(ctx context.Context, t *testing.T, broadcaster Broadcaster) {
	t.Helper()

	t.Run("Subscribers of a topic receive its snapshots", func(t *testing.T) {
		// Given: two subscribers of game 1 and one of game 2
		first, cancelFirst, err := broadcaster.Subscribe(ctx, Topic("1"))
		require.NoError(t, err)
		defer cancelFirst()

		second, cancelSecond, err := broadcaster.Subscribe(ctx, Topic("1"))
		require.NoError(t, err)
		defer cancelSecond()

		other, cancelOther, err := broadcaster.Subscribe(ctx, Topic("2"))
		require.NoError(t, err)
		defer cancelOther()

		// When: a snapshot of game 1 is published
		snapshot := &entity.Snapshot{ID: "1", BoardSize: 3, StatusText: "Next player: O"}
		require.NoError(t, broadcaster.Publish(ctx, Topic("1"), snapshot))

		// Then: both subscribers of game 1 get it and game 2 does not
		assert.Equal(t, snapshot.StatusText, receive(t, first).StatusText)
		assert.Equal(t, snapshot.StatusText, receive(t, second).StatusText)

		select {
		case got := <-other:
			t.Fatalf("unexpected snapshot %v", got)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Cancel closes the subscription", func(t *testing.T) {
		snapshots, cancel, err := broadcaster.Subscribe(ctx, Topic("3"))
		require.NoError(t, err)

		cancel()

		waitClosed(t, snapshots)
	})
}

func TestMemory(t *testing.T) {
	broadcaster := NewMemory()
	t.Cleanup(func() { _ = broadcaster.Close() })

	testBroadcaster(context.Background(), t, broadcaster)
}

func TestRedis(t *testing.T) {
	ctx, st := suite.New(t)

	testBroadcaster(ctx, t, NewRedis(st.Redis))
}
