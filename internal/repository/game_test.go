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

func newPlayedGame(t *testing.T, id string, cells ...int) *entity.Game {
	t.Helper()

	game, err := entity.NewGame(id, 3)
	require.NoError(t, err)

	for _, cell := range cells {
		_, err = game.Play(cell)
		require.NoError(t, err)
	}

	return game
}

func testGameRepository(ctx context.Context, t *testing.T, gameRepo GameRepository) {
	t.Helper()

	t.Run("GetByID_Success", func(t *testing.T) {
		// Given: a stored game viewed at an earlier move
		game := newPlayedGame(t, "123", 0, 4, 1)
		require.NoError(t, game.JumpTo(2))

		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID())

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game.Snapshot(), retrievedGame.Snapshot())
		assert.Equal(t, game.HistoryLen(), retrievedGame.HistoryLen())
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, ErrGameNotFound)
		assert.Nil(t, retrievedGame)
	})

	t.Run("CreateOrUpdate_Overwrites", func(t *testing.T) {
		game := newPlayedGame(t, "456", 0)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: the game is reset and saved again
		game.Reset()
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// Then: the stored copy is reset too
		retrievedGame, err := gameRepo.GetByID(ctx, "456")
		require.NoError(t, err)
		assert.Equal(t, 1, retrievedGame.HistoryLen())
	})

	t.Run("DeleteByID_Success", func(t *testing.T) {
		game := newPlayedGame(t, "789")
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: DeleteByID is called with existing ID
		require.NoError(t, gameRepo.DeleteByID(ctx, game.ID()))

		// Then: the game is gone
		_, err := gameRepo.GetByID(ctx, game.ID())
		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		err := gameRepo.DeleteByID(ctx, "9999999")

		assert.ErrorIs(t, err, ErrGameNotFound)
	})
}

func TestGameRepository_Memory(t *testing.T) {
	testGameRepository(context.Background(), t, NewGameRepository(storage.NewMemoryStorage(16, time.Minute)))
}

func TestGameRepository_Redis(t *testing.T) {
	ctx, st := suite.New(t)

	testGameRepository(ctx, t, NewGameRepository(storage.NewRedisStorageWithClient(st.Redis, time.Minute)))
}

func TestGameRepository_CorruptedRecord(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage(16, time.Minute)
	gameRepo := NewGameRepository(st)

	// Given: a record whose history skips a move
	require.NoError(t, st.Set(ctx, "game:bad",
		[]byte(`{"id":"bad","board_size":3,"history":[["","","","","","","","",""],["X","O","","","","","","",""]],"current_move":1}`)))

	// When: reading it
	_, err := gameRepo.GetByID(ctx, "bad")

	// Then: the record is refused
	assert.ErrorIs(t, err, entity.ErrCorruptedGame)
}
