// Package service hosts the per-player game sessions: it owns the controller
// instances, serializes access to them, and drives the shared tick and
// autosave loops.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/config"
	"github.com/idle-shapes/game-service/internal/game"
	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/internal/storage"
	"github.com/idle-shapes/game-service/pkg/logger"
	"github.com/idle-shapes/game-service/pkg/metrics"
)

// ErrSessionNotFound means the player has no live session; the client should
// reopen one via POST /sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session binds one player to one controller. The mutex serializes every
// touch of the controller: HTTP handlers, the tick loop and the autosave
// loop all go through it, which preserves the single-owner discipline the
// controller relies on.
type Session struct {
	mu         sync.Mutex
	playerID   uuid.UUID
	controller *game.Controller
	settings   storage.PlayerSettings
	lastTick   time.Time
	lastSeen   time.Time
}

// GameService is the session registry plus the background loops.
type GameService struct {
	saves  *storage.SaveRepository
	scores storage.ScoreRepository
	cfg    config.GameConfig
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewGameService(saves *storage.SaveRepository, scores storage.ScoreRepository, cfg config.GameConfig, now func() time.Time) *GameService {
	if now == nil {
		now = time.Now
	}
	return &GameService{
		saves:    saves,
		scores:   scores,
		cfg:      cfg,
		now:      now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// OpenSession creates or resumes a session. A zero playerID means a brand-new
// player. The current save is loaded when one exists; load-time events
// (offline credit, version skew, corrupt save) come back as notices rather
// than errors.
func (s *GameService) OpenSession(ctx context.Context, playerID uuid.UUID) (uuid.UUID, bool, []string, error) {
	if playerID == uuid.Nil {
		playerID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[playerID]; ok {
		sess.mu.Lock()
		sess.lastSeen = s.now()
		sess.mu.Unlock()
		return playerID, true, nil, nil
	}

	now := s.now()
	var notices []string
	resumed := false

	state := game.NewState(now)
	save, err := s.saves.LoadCurrent(ctx, playerID)
	switch {
	case err == nil:
		loaded, convErr := save.ToState(now)
		if convErr != nil {
			logger.Warn("Discarding unreadable save",
				zap.String("player_id", playerID.String()), zap.Error(convErr))
			notices = append(notices, "Your save could not be read; starting a new game.")
		} else {
			state = loaded
			resumed = true
			if save.Version != game.SaveVersion {
				notices = append(notices, "The game has been updated since your last save.")
				state.Version = game.SaveVersion
			}
			elapsed, gained := storage.ApplyOfflineProgress(state, save.SavedRate(), now, s.cfg.MaxOfflineCredit)
			if gained.GreaterThan(decimal.Zero) {
				notices = append(notices, fmt.Sprintf(
					"Welcome back! You earned %s shapes while away (%s).",
					gained.Truncate(0).String(), elapsed.Round(time.Second)))
			}
		}
	case errors.Is(err, storage.ErrNotFound):
		// First visit: fresh state.
	case errors.Is(err, storage.ErrCorrupt):
		logger.Warn("Discarding corrupt save",
			zap.String("player_id", playerID.String()), zap.Error(err))
		notices = append(notices, "Your save could not be read; starting a new game.")
	default:
		// Storage down: play on a fresh state rather than refusing entry.
		logger.Error("Failed to load save, starting fresh",
			zap.String("player_id", playerID.String()), zap.Error(err))
		notices = append(notices, "Saved progress is temporarily unavailable.")
	}

	settings, err := s.saves.LoadSettings(ctx, playerID)
	if err != nil {
		logger.Warn("Failed to load settings, using defaults",
			zap.String("player_id", playerID.String()), zap.Error(err))
		settings = storage.DefaultSettings()
	}

	sess := &Session{
		playerID:   playerID,
		controller: game.NewController(state, s.now),
		settings:   settings,
		lastTick:   now,
		lastSeen:   now,
	}
	s.sessions[playerID] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))

	logger.Info("Session opened",
		zap.String("player_id", playerID.String()),
		zap.Bool("resumed", resumed))
	return playerID, resumed, notices, nil
}

func (s *GameService) session(playerID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[playerID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// withSession runs fn holding the session lock and stamps activity.
func (s *GameService) withSession(playerID uuid.UUID, fn func(*Session)) error {
	sess, err := s.session(playerID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	fn(sess)
	return nil
}

// State returns the player's current snapshot.
func (s *GameService) State(playerID uuid.UUID) (*game.State, error) {
	var snap *game.State
	err := s.withSession(playerID, func(sess *Session) {
		snap = sess.controller.Snapshot()
	})
	return snap, err
}

// Click applies count manual clicks as one batch.
func (s *GameService) Click(playerID uuid.UUID, count int) (*game.State, game.OpResult, error) {
	var snap *game.State
	var result game.OpResult
	err := s.withSession(playerID, func(sess *Session) {
		for i := 0; i < count; i++ {
			res := sess.controller.ApplyClick()
			if !res.Applied {
				result = res
				break
			}
			result.Applied = true
			result.Unlocked = append(result.Unlocked, res.Unlocked...)
		}
		if result.Applied {
			metrics.ClicksTotal.Add(float64(count))
		}
		snap = sess.controller.Snapshot()
	})
	recordUnlocks(result)
	return snap, result, err
}

func recordUnlocks(result game.OpResult) {
	for _, id := range result.Unlocked {
		metrics.RecordAchievement(id)
	}
}

// BuyBuilding purchases one unit of a building.
func (s *GameService) BuyBuilding(playerID uuid.UUID, buildingID string) (*game.State, game.OpResult, error) {
	var snap *game.State
	var result game.OpResult
	err := s.withSession(playerID, func(sess *Session) {
		result = sess.controller.PurchaseBuilding(buildingID)
		snap = sess.controller.Snapshot()
	})
	if err == nil {
		outcome := "applied"
		if !result.Applied {
			outcome = result.Reason
		}
		metrics.RecordPurchase("building", buildingID, outcome)
		recordUnlocks(result)
	}
	return snap, result, err
}

// BuyUpgrade purchases one level of an upgrade.
func (s *GameService) BuyUpgrade(playerID uuid.UUID, upgradeID string) (*game.State, game.OpResult, error) {
	var snap *game.State
	var result game.OpResult
	err := s.withSession(playerID, func(sess *Session) {
		result = sess.controller.PurchaseUpgrade(upgradeID)
		snap = sess.controller.Snapshot()
	})
	if err == nil {
		outcome := "applied"
		if !result.Applied {
			outcome = result.Reason
		}
		metrics.RecordPurchase("upgrade", upgradeID, outcome)
		recordUnlocks(result)
	}
	return snap, result, err
}

// CollectBonus credits a golden-container pickup reported by the client's
// spawn widget.
func (s *GameService) CollectBonus(playerID uuid.UUID, amount decimal.Decimal, multiplier, durationSec float64) (*game.State, game.OpResult, error) {
	var snap *game.State
	var result game.OpResult
	err := s.withSession(playerID, func(sess *Session) {
		result = sess.controller.CollectBonus(amount, multiplier, durationSec)
		snap = sess.controller.Snapshot()
	})
	recordUnlocks(result)
	return snap, result, err
}

// PrestigePreview reports what a prestige would grant right now.
func (s *GameService) PrestigePreview(playerID uuid.UUID) (points int, nextMult float64, currentMult float64, eligible bool, err error) {
	err = s.withSession(playerID, func(sess *Session) {
		points, nextMult, eligible = sess.controller.PrestigePreview()
		currentMult = sess.controller.Snapshot().PrestigeMultiplier
	})
	return points, nextMult, currentMult, eligible, err
}

// ConfirmPrestige performs the reset and persists immediately: losing a
// prestige to a crash would be the worst possible save gap.
func (s *GameService) ConfirmPrestige(ctx context.Context, playerID uuid.UUID) (*game.State, game.OpResult, error) {
	var snap *game.State
	var result game.OpResult
	err := s.withSession(playerID, func(sess *Session) {
		result = sess.controller.ConfirmPrestige()
		snap = sess.controller.Snapshot()
		if result.Applied {
			metrics.PrestigesTotal.Inc()
			s.persistLocked(ctx, sess, "prestige")
		}
	})
	return snap, result, err
}

// NewGame archives the ending run to the leaderboard and resets to defaults.
func (s *GameService) NewGame(ctx context.Context, playerID uuid.UUID) (*game.State, error) {
	var snap *game.State
	err := s.withSession(playerID, func(sess *Session) {
		summary := sess.controller.NewGame()
		if summary.Earned.GreaterThan(decimal.Zero) {
			score := storage.Score{
				PlayerID:   playerID,
				Earned:     summary.Earned,
				Prestiges:  summary.TotalPrestiges,
				TimePlayed: summary.TimePlayed,
				EndedAt:    summary.EndedAt,
			}
			if err := s.scores.Add(ctx, score); err != nil {
				logger.Error("Failed to archive high score",
					zap.String("player_id", playerID.String()), zap.Error(err))
			}
		}
		sess.lastTick = s.now()
		s.persistLocked(ctx, sess, "new_game")
		snap = sess.controller.Snapshot()
	})
	return snap, err
}

// Suspend stops the player's tick and saves. Safe to call repeatedly.
func (s *GameService) Suspend(ctx context.Context, playerID uuid.UUID) error {
	return s.withSession(playerID, func(sess *Session) {
		sess.controller.Suspend()
		s.persistLocked(ctx, sess, "suspend")
	})
}

// Resume re-enters the active state. The tick clock re-anchors to now, so
// the suspended span produces no catch-up burst.
func (s *GameService) Resume(playerID uuid.UUID) error {
	return s.withSession(playerID, func(sess *Session) {
		sess.controller.Resume()
		sess.lastTick = s.now()
	})
}

// Save persists the current run on demand.
func (s *GameService) Save(ctx context.Context, playerID uuid.UUID) (time.Time, error) {
	var savedAt time.Time
	var saveErr error
	err := s.withSession(playerID, func(sess *Session) {
		savedAt = s.now()
		saveErr = s.saves.SaveCurrent(ctx, playerID, models.SaveFromState(sess.controller.Snapshot(), savedAt))
	})
	if err != nil {
		return time.Time{}, err
	}
	if saveErr != nil {
		metrics.RecordSave("manual", "error")
		return time.Time{}, saveErr
	}
	metrics.RecordSave("manual", "success")
	return savedAt, nil
}

// SaveToSlot snapshots the current run into a named slot.
func (s *GameService) SaveToSlot(ctx context.Context, playerID uuid.UUID, slot string) (time.Time, error) {
	var savedAt time.Time
	var saveErr error
	err := s.withSession(playerID, func(sess *Session) {
		savedAt = s.now()
		saveErr = s.saves.SaveSlot(ctx, playerID, slot, models.SaveFromState(sess.controller.Snapshot(), savedAt))
	})
	if err != nil {
		return time.Time{}, err
	}
	if saveErr != nil {
		metrics.RecordSave("slot", "error")
		return time.Time{}, saveErr
	}
	metrics.RecordSave("slot", "success")
	return savedAt, nil
}

// ListSlots lists the player's save slots, newest first.
func (s *GameService) ListSlots(ctx context.Context, playerID uuid.UUID) ([]storage.SlotInfo, error) {
	if _, err := s.session(playerID); err != nil {
		return nil, err
	}
	return s.saves.ListSlots(ctx, playerID)
}

// LoadSlot replaces the live state with a named slot. Offline progress is
// not applied: the slot is a deliberate restore point, not an idle run.
func (s *GameService) LoadSlot(ctx context.Context, playerID uuid.UUID, slot string) (*game.State, []string, error) {
	save, err := s.saves.LoadSlot(ctx, playerID, slot)
	if err != nil {
		return nil, nil, err
	}
	state, err := save.ToState(s.now())
	if err != nil {
		return nil, nil, errors.Wrap(storage.ErrCorrupt, err.Error())
	}

	var notices []string
	if save.Version != game.SaveVersion {
		notices = append(notices, "This save comes from an older game version.")
		state.Version = game.SaveVersion
	}

	var snap *game.State
	err = s.withSession(playerID, func(sess *Session) {
		sess.controller.ReplaceState(state)
		sess.lastTick = s.now()
		s.persistLocked(ctx, sess, "load_slot")
		snap = sess.controller.Snapshot()
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, notices, nil
}

// DeleteSlot removes a named slot.
func (s *GameService) DeleteSlot(ctx context.Context, playerID uuid.UUID, slot string) error {
	if _, err := s.session(playerID); err != nil {
		return err
	}
	return s.saves.DeleteSlot(ctx, playerID, slot)
}

// Settings returns the player's preferences.
func (s *GameService) Settings(playerID uuid.UUID) (storage.PlayerSettings, error) {
	var settings storage.PlayerSettings
	err := s.withSession(playerID, func(sess *Session) {
		settings = sess.settings
	})
	return settings, err
}

// UpdateSettings applies partial preference changes and persists them.
func (s *GameService) UpdateSettings(ctx context.Context, playerID uuid.UUID, sound, music *bool) (storage.PlayerSettings, error) {
	var settings storage.PlayerSettings
	err := s.withSession(playerID, func(sess *Session) {
		if sound != nil {
			sess.settings.SoundEnabled = *sound
		}
		if music != nil {
			sess.settings.MusicEnabled = *music
		}
		settings = sess.settings
		if err := s.saves.SaveSettings(ctx, playerID, sess.settings); err != nil {
			logger.Warn("Failed to persist settings",
				zap.String("player_id", playerID.String()), zap.Error(err))
		}
	})
	return settings, err
}

// TopScores serves the leaderboard; no session required.
func (s *GameService) TopScores(ctx context.Context, limit int) ([]storage.Score, error) {
	if limit <= 0 || limit > s.cfg.HighScoreLimit {
		limit = s.cfg.HighScoreLimit
	}
	return s.scores.Top(ctx, limit)
}

// persistLocked saves a session the caller already holds. Save failures are
// logged and swallowed: persistence trouble must never break gameplay.
func (s *GameService) persistLocked(ctx context.Context, sess *Session, kind string) {
	savedAt := s.now()
	save := models.SaveFromState(sess.controller.Snapshot(), savedAt)
	if err := s.saves.SaveCurrent(ctx, sess.playerID, save); err != nil {
		metrics.RecordSave(kind, "error")
		logger.Error("Failed to persist game state",
			zap.String("player_id", sess.playerID.String()),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}
	metrics.RecordSave(kind, "success")
}

// RunTickLoop drives production for every active session until ctx is done.
// Each pass measures the real elapsed time per session instead of assuming
// the ticker period, so production stays accurate under scheduler jitter.
func (s *GameService) RunTickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	logger.Info("Production tick loop started",
		zap.Duration("interval", s.cfg.TickInterval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Production tick loop stopped")
			return
		case <-ticker.C:
			s.tickAll()
		}
	}
}

func (s *GameService) tickAll() {
	now := s.now()

	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	var idle []uuid.UUID
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.controller.Mode() == game.ModeActive {
			delta := now.Sub(sess.lastTick).Seconds()
			sess.controller.TickProduction(delta)
		}
		sess.lastTick = now
		if s.cfg.SessionIdleLimit > 0 && now.Sub(sess.lastSeen) > s.cfg.SessionIdleLimit {
			idle = append(idle, sess.playerID)
		}
		sess.mu.Unlock()
	}
	for _, playerID := range idle {
		s.evict(playerID)
	}
}

// evict saves and drops a session that went idle. The player transparently
// gets a new session (with offline credit) on their next request.
func (s *GameService) evict(playerID uuid.UUID) {
	s.mu.Lock()
	sess, ok := s.sessions[playerID]
	if ok {
		delete(s.sessions, playerID)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess.mu.Lock()
	s.persistLocked(ctx, sess, "evict")
	sess.mu.Unlock()
	logger.Info("Idle session evicted", zap.String("player_id", playerID.String()))
}

// RunAutosaveLoop periodically persists every live session until ctx is done.
func (s *GameService) RunAutosaveLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.AutosaveInterval)
	defer ticker.Stop()

	logger.Info("Autosave loop started",
		zap.Duration("interval", s.cfg.AutosaveInterval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Autosave loop stopped")
			return
		case <-ticker.C:
			s.SaveAll(ctx)
		}
	}
}

// SaveAll persists every live session; also used at shutdown.
func (s *GameService) SaveAll(ctx context.Context) {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		s.persistLocked(ctx, sess, "autosave")
		sess.mu.Unlock()
	}
}

// SessionCount reports the number of live sessions.
func (s *GameService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
