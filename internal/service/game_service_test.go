package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idle-shapes/game-service/internal/config"
	"github.com/idle-shapes/game-service/internal/game"
	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		TickInterval:     250 * time.Millisecond,
		AutosaveInterval: 30 * time.Second,
		MaxOfflineCredit: 72 * time.Hour,
		SessionIdleLimit: 30 * time.Minute,
		HighScoreLimit:   10,
		MaxSaveSlots:     5,
	}
}

func newTestService(kv storage.KV) (*GameService, *fakeClock) {
	clock := newFakeClock()
	saves := storage.NewSaveRepository(kv, 5)
	scores := storage.NewMemoryScoreRepository(10)
	return NewGameService(saves, scores, testGameConfig(), clock.Now), clock
}

func TestOpenSessionNewPlayer(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())

	playerID, resumed, notices, err := svc.OpenSession(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, playerID)
	assert.False(t, resumed)
	assert.Empty(t, notices)
	assert.Equal(t, 1, svc.SessionCount())

	state, err := svc.State(playerID)
	require.NoError(t, err)
	assert.True(t, state.Shapes.Amount.IsZero())
}

func TestOpenSessionIsIdempotent(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)

	again, resumed, _, err := svc.OpenSession(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, playerID, again)
	assert.True(t, resumed)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestSessionNotFound(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())

	_, err := svc.State(uuid.New())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestClickBatch(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())
	playerID, _, _, err := svc.OpenSession(context.Background(), uuid.Nil)
	require.NoError(t, err)

	state, result, err := svc.Click(playerID, 25)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.True(t, state.Shapes.Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, int64(25), state.Stats.TotalClicks)
}

func TestBuyBuildingFlow(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())
	playerID, _, _, err := svc.OpenSession(context.Background(), uuid.Nil)
	require.NoError(t, err)

	_, result, err := svc.BuyBuilding(playerID, "box")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, game.ReasonInsufficientFunds, result.Reason)

	_, _, err = svc.Click(playerID, 20)
	require.NoError(t, err)

	state, result, err := svc.BuyBuilding(playerID, "box")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 1, state.BuildingState("box").Owned)
	assert.Contains(t, result.Unlocked, "first-box")
}

func TestSaveAndResumeWithOfflineProgress(t *testing.T) {
	kv := storage.NewMemoryKV()
	svc, clock := newTestService(kv)
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 20)
	require.NoError(t, err)
	_, result, err := svc.BuyBuilding(playerID, "box")
	require.NoError(t, err)
	require.True(t, result.Applied)
	_, err = svc.Save(ctx, playerID)
	require.NoError(t, err)

	// A fresh service instance over the same store, an hour later.
	clock.Advance(time.Hour)
	svc2 := NewGameService(storage.NewSaveRepository(kv, 5),
		storage.NewMemoryScoreRepository(10), testGameConfig(), clock.Now)

	_, resumed, notices, err := svc2.OpenSession(ctx, playerID)
	require.NoError(t, err)
	assert.True(t, resumed)
	require.NotEmpty(t, notices, "offline credit surfaces as a notice")
	assert.Contains(t, notices[0], "while away")

	state, err := svc2.State(playerID)
	require.NoError(t, err)
	// One box at 0.1/s for 3600s on top of the saved 5.
	assert.True(t, state.Shapes.Amount.Equal(decimal.RequireFromString("365")),
		"amount=%s", state.Shapes.Amount)
}

func TestOfflineCreditIsCapped(t *testing.T) {
	kv := storage.NewMemoryKV()
	svc, clock := newTestService(kv)
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 20)
	require.NoError(t, err)
	_, _, err = svc.BuyBuilding(playerID, "box")
	require.NoError(t, err)
	_, err = svc.Save(ctx, playerID)
	require.NoError(t, err)

	clock.Advance(30 * 24 * time.Hour)
	svc2 := NewGameService(storage.NewSaveRepository(kv, 5),
		storage.NewMemoryScoreRepository(10), testGameConfig(), clock.Now)
	_, _, _, err = svc2.OpenSession(ctx, playerID)
	require.NoError(t, err)

	state, err := svc2.State(playerID)
	require.NoError(t, err)
	// Capped at 72h: 5 + 72*3600*0.1 = 25925.
	assert.True(t, state.Shapes.Amount.Equal(decimal.RequireFromString("25925")),
		"amount=%s", state.Shapes.Amount)
}

func TestOpenSessionWithCorruptSave(t *testing.T) {
	kv := storage.NewMemoryKV()
	svc, _ := newTestService(kv)
	ctx := context.Background()
	playerID := uuid.New()

	require.NoError(t, kv.Set(ctx, fmt.Sprintf("game:%s:current", playerID), "{broken"))

	got, resumed, notices, err := svc.OpenSession(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, playerID, got)
	assert.False(t, resumed)
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[0], "could not be read")
}

func TestOpenSessionWithOldVersionSave(t *testing.T) {
	kv := storage.NewMemoryKV()
	svc, clock := newTestService(kv)
	ctx := context.Background()
	playerID := uuid.New()

	save := models.SaveFromState(game.NewState(clock.Now()), clock.Now())
	save.Version = "1.0.0"
	data, err := json.Marshal(save)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, fmt.Sprintf("game:%s:current", playerID), string(data)))

	_, resumed, notices, err := svc.OpenSession(ctx, playerID)
	require.NoError(t, err)
	assert.True(t, resumed)
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[0], "updated")

	state, err := svc.State(playerID)
	require.NoError(t, err)
	assert.Equal(t, game.SaveVersion, state.Version)
}

func TestTickLoopCreditsProduction(t *testing.T) {
	svc, clock := newTestService(storage.NewMemoryKV())
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 20)
	require.NoError(t, err)
	_, _, err = svc.BuyBuilding(playerID, "box")
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	svc.tickAll()

	state, err := svc.State(playerID)
	require.NoError(t, err)
	// 5 remaining after the box, plus 10s at 0.1/s.
	assert.True(t, state.Shapes.Amount.Equal(decimal.RequireFromString("6")),
		"amount=%s", state.Shapes.Amount)
}

func TestSuspendStopsTicking(t *testing.T) {
	svc, clock := newTestService(storage.NewMemoryKV())
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 20)
	require.NoError(t, err)
	_, _, err = svc.BuyBuilding(playerID, "box")
	require.NoError(t, err)

	require.NoError(t, svc.Suspend(ctx, playerID))
	before, err := svc.State(playerID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	svc.tickAll()

	after, err := svc.State(playerID)
	require.NoError(t, err)
	assert.True(t, after.Shapes.Amount.Equal(before.Shapes.Amount),
		"suspended session must not produce")

	// Resume re-anchors the tick clock: no burst for the suspended span.
	require.NoError(t, svc.Resume(playerID))
	clock.Advance(10 * time.Second)
	svc.tickAll()
	resumed, err := svc.State(playerID)
	require.NoError(t, err)
	expected := before.Shapes.Amount.Add(decimal.RequireFromString("1"))
	assert.True(t, resumed.Shapes.Amount.Equal(expected),
		"got %s, want %s", resumed.Shapes.Amount, expected)
}

func TestIdleSessionEvictedAndSaved(t *testing.T) {
	kv := storage.NewMemoryKV()
	svc, clock := newTestService(kv)
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 7)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	svc.tickAll()

	assert.Equal(t, 0, svc.SessionCount())
	_, err = svc.State(playerID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	// The evicted state was persisted.
	raw, err := kv.Get(ctx, fmt.Sprintf("game:%s:current", playerID))
	require.NoError(t, err)
	var save models.SaveV1
	require.NoError(t, json.Unmarshal([]byte(raw), &save))
	assert.Equal(t, int64(7), save.Stats.TotalClicks)
}

func TestNewGameArchivesScore(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 50)
	require.NoError(t, err)

	state, err := svc.NewGame(ctx, playerID)
	require.NoError(t, err)
	assert.True(t, state.Shapes.Amount.IsZero())

	scores, err := svc.TopScores(ctx, 10)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.True(t, scores[0].Earned.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, playerID, scores[0].PlayerID)
}

func TestSlotLifecycle(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)
	_, _, err = svc.Click(playerID, 30)
	require.NoError(t, err)

	_, err = svc.SaveToSlot(ctx, playerID, "before-spree")
	require.NoError(t, err)

	_, _, err = svc.Click(playerID, 30)
	require.NoError(t, err)

	slots, err := svc.ListSlots(ctx, playerID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "before-spree", slots[0].Slot)

	state, notices, err := svc.LoadSlot(ctx, playerID, "before-spree")
	require.NoError(t, err)
	assert.Empty(t, notices)
	assert.True(t, state.Shapes.Amount.Equal(decimal.NewFromInt(30)),
		"restore point wins over live state, got %s", state.Shapes.Amount)

	require.NoError(t, svc.DeleteSlot(ctx, playerID, "before-spree"))
	_, _, err = svc.LoadSlot(ctx, playerID, "before-spree")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPrestigeThroughService(t *testing.T) {
	svc, _ := newTestService(storage.NewMemoryKV())
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)

	_, _, _, eligible, err := svc.PrestigePreview(playerID)
	require.NoError(t, err)
	assert.False(t, eligible)

	_, result, err := svc.ConfirmPrestige(ctx, playerID)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, game.ReasonNotEligible, result.Reason)
}

func TestSettingsLifecycle(t *testing.T) {
	kv := storage.NewMemoryKV()
	svc, _ := newTestService(kv)
	ctx := context.Background()

	playerID, _, _, err := svc.OpenSession(ctx, uuid.Nil)
	require.NoError(t, err)

	settings, err := svc.Settings(playerID)
	require.NoError(t, err)
	assert.True(t, settings.SoundEnabled)

	off := false
	settings, err = svc.UpdateSettings(ctx, playerID, nil, &off)
	require.NoError(t, err)
	assert.True(t, settings.SoundEnabled)
	assert.False(t, settings.MusicEnabled)

	// Preferences survive session re-creation.
	svc2, _ := newTestService(kv)
	_, _, _, err = svc2.OpenSession(ctx, playerID)
	require.NoError(t, err)
	settings, err = svc2.Settings(playerID)
	require.NoError(t, err)
	assert.False(t, settings.MusicEnabled)
}
