package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idle-shapes/game-service/internal/game"
	"github.com/idle-shapes/game-service/internal/models"
)

func testSave(t *testing.T, savedAt time.Time) *models.SaveV1 {
	t.Helper()
	state := game.NewState(savedAt)
	state.Shapes.Amount = decimal.NewFromInt(500)
	state.Shapes.Earned = decimal.NewFromInt(750)
	state.Shapes.PerSecond = decimal.RequireFromString("2.5")
	state.LastSaveTime = savedAt
	return models.SaveFromState(state, savedAt)
}

func TestSaveRepository_CurrentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSaveRepository(NewMemoryKV(), 20)
	playerID := uuid.New()
	now := time.Now().Truncate(time.Millisecond)

	_, err := repo.LoadCurrent(ctx, playerID)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, repo.SaveCurrent(ctx, playerID, testSave(t, now)))

	loaded, err := repo.LoadCurrent(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, "500", loaded.Shapes.Amount)
	assert.Equal(t, now.UnixMilli(), loaded.LastSaveTime)

	require.NoError(t, repo.DeleteCurrent(ctx, playerID))
	_, err = repo.LoadCurrent(ctx, playerID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveRepository_CorruptSave(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := NewSaveRepository(kv, 20)
	playerID := uuid.New()

	require.NoError(t, kv.Set(ctx, currentKey(playerID), "{not json"))

	_, err := repo.LoadCurrent(ctx, playerID)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestSaveRepository_Slots(t *testing.T) {
	ctx := context.Background()
	repo := NewSaveRepository(NewMemoryKV(), 20)
	playerID := uuid.New()
	other := uuid.New()
	base := time.Now().Truncate(time.Millisecond)

	require.NoError(t, repo.SaveSlot(ctx, playerID, "run-1", testSave(t, base.Add(-time.Hour))))
	require.NoError(t, repo.SaveSlot(ctx, playerID, "run-2", testSave(t, base)))
	require.NoError(t, repo.SaveSlot(ctx, other, "theirs", testSave(t, base)))

	slots, err := repo.ListSlots(ctx, playerID)
	require.NoError(t, err)
	require.Len(t, slots, 2, "other players' slots must not leak")
	assert.Equal(t, "run-2", slots[0].Slot, "newest first")
	assert.Equal(t, "run-1", slots[1].Slot)
	assert.True(t, slots[0].Earned.Equal(decimal.NewFromInt(750)))

	loaded, err := repo.LoadSlot(ctx, playerID, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "500", loaded.Shapes.Amount)

	// Deleting one slot leaves the others alone.
	require.NoError(t, repo.DeleteSlot(ctx, playerID, "run-1"))
	_, err = repo.LoadSlot(ctx, playerID, "run-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = repo.LoadSlot(ctx, playerID, "run-2")
	assert.NoError(t, err)
}

func TestSaveRepository_SlotLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewSaveRepository(NewMemoryKV(), 2)
	playerID := uuid.New()
	now := time.Now()

	require.NoError(t, repo.SaveSlot(ctx, playerID, "a", testSave(t, now)))
	require.NoError(t, repo.SaveSlot(ctx, playerID, "b", testSave(t, now)))

	err := repo.SaveSlot(ctx, playerID, "c", testSave(t, now))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot limit")

	// Overwriting an existing slot is still allowed at the cap.
	assert.NoError(t, repo.SaveSlot(ctx, playerID, "a", testSave(t, now)))
}

func TestSaveRepository_SlotNameValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewSaveRepository(NewMemoryKV(), 20)
	playerID := uuid.New()

	for _, bad := range []string{"", "has space", "semi;colon", "glob*"} {
		err := repo.SaveSlot(ctx, playerID, bad, testSave(t, time.Now()))
		assert.Error(t, err, "slot %q should be rejected", bad)
	}
}

func TestSaveRepository_Settings(t *testing.T) {
	ctx := context.Background()
	repo := NewSaveRepository(NewMemoryKV(), 20)
	playerID := uuid.New()

	settings, err := repo.LoadSettings(ctx, playerID)
	require.NoError(t, err)
	assert.True(t, settings.SoundEnabled)
	assert.True(t, settings.MusicEnabled)

	settings.MusicEnabled = false
	require.NoError(t, repo.SaveSettings(ctx, playerID, settings))

	loaded, err := repo.LoadSettings(ctx, playerID)
	require.NoError(t, err)
	assert.True(t, loaded.SoundEnabled)
	assert.False(t, loaded.MusicEnabled)
}

func TestApplyOfflineProgress(t *testing.T) {
	now := time.Now()
	state := game.NewState(now)
	state.Shapes.Amount = decimal.NewFromInt(100)
	state.Shapes.Earned = decimal.NewFromInt(100)
	state.LastSaveTime = now.Add(-10 * time.Minute)

	elapsed, gained := ApplyOfflineProgress(state, decimal.NewFromInt(2), now, 72*time.Hour)
	assert.Equal(t, 10*time.Minute, elapsed)
	assert.True(t, gained.Equal(decimal.NewFromInt(1200)), "600s * 2/s, got %s", gained)
	assert.True(t, state.Shapes.Amount.Equal(decimal.NewFromInt(1300)))
	assert.True(t, state.Shapes.Earned.Equal(decimal.NewFromInt(1300)))
	assert.True(t, state.Stats.HighestShapes.Equal(decimal.NewFromInt(1300)))
}

func TestApplyOfflineProgress_Clamps(t *testing.T) {
	now := time.Now()

	// Save timestamp in the future: clamp to zero, never negative credit.
	state := game.NewState(now)
	state.LastSaveTime = now.Add(time.Hour)
	elapsed, gained := ApplyOfflineProgress(state, decimal.NewFromInt(5), now, 72*time.Hour)
	assert.Zero(t, elapsed)
	assert.True(t, gained.IsZero())

	// A month away caps at the configured credit window.
	state = game.NewState(now)
	state.LastSaveTime = now.Add(-30 * 24 * time.Hour)
	elapsed, gained = ApplyOfflineProgress(state, decimal.NewFromInt(1), now, 72*time.Hour)
	assert.Equal(t, 72*time.Hour, elapsed)
	assert.True(t, gained.Equal(decimal.NewFromInt(72*3600)))

	// Zero rate earns nothing regardless of elapsed time.
	state = game.NewState(now)
	state.LastSaveTime = now.Add(-time.Hour)
	_, gained = ApplyOfflineProgress(state, decimal.Zero, now, 72*time.Hour)
	assert.True(t, gained.IsZero())
}
