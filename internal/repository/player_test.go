package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-timetravel/testing/suite"
)

func testPlayerRepository(ctx context.Context, t *testing.T, playerRepo PlayerRepository) {
	t.Helper()

	t.Run("CreateOrUpdate then GetByID", func(t *testing.T) {
		// Given: a player attached to a game
		player := &entity.Player{ID: "p1", GameID: "g1"}

		// When: it is stored and read back
		require.NoError(t, playerRepo.CreateOrUpdate(ctx, player))
		retrievedPlayer, err := playerRepo.GetByID(ctx, "p1")

		// Then: both copies match
		require.NoError(t, err)
		assert.Equal(t, player, retrievedPlayer)
	})

	t.Run("GetByID of an unknown player", func(t *testing.T) {
		_, err := playerRepo.GetByID(ctx, "unknown")

		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})
}

func TestPlayerRepository_Memory(t *testing.T) {
	testPlayerRepository(context.Background(), t, NewPlayerRepository(storage.NewMemoryStorage(16, time.Minute)))
}

func TestPlayerRepository_Redis(t *testing.T) {
	ctx, st := suite.New(t)

	testPlayerRepository(ctx, t, NewPlayerRepository(storage.NewRedisStorageWithClient(st.Redis, time.Minute)))
}
