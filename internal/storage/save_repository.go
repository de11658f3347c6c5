package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/idle-shapes/game-service/internal/game"
	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/pkg/metrics"
)

// Key scheme:
//
//	game:{player}:current      autosaved current run
//	game:{player}:slot:{name}  named manual save slots
//	settings:{player}          sound/music preferences
func currentKey(playerID uuid.UUID) string {
	return fmt.Sprintf("game:%s:current", playerID)
}

func slotKey(playerID uuid.UUID, slot string) string {
	return fmt.Sprintf("game:%s:slot:%s", playerID, slot)
}

func slotPattern(playerID uuid.UUID) string {
	return fmt.Sprintf("game:%s:slot:*", playerID)
}

func settingsKey(playerID uuid.UUID) string {
	return fmt.Sprintf("settings:%s", playerID)
}

// PlayerSettings are the persisted client preferences.
type PlayerSettings struct {
	SoundEnabled bool `json:"soundEnabled"`
	MusicEnabled bool `json:"musicEnabled"`
}

// DefaultSettings has everything on.
func DefaultSettings() PlayerSettings {
	return PlayerSettings{SoundEnabled: true, MusicEnabled: true}
}

// SlotInfo summarizes one save slot for listings.
type SlotInfo struct {
	Slot      string
	SavedAt   time.Time
	Earned    decimal.Decimal
	Prestiges int
	Version   string
}

// SaveRepository stores serialized game states per player. Operations on one
// slot never touch another.
type SaveRepository struct {
	kv       KV
	maxSlots int
}

func NewSaveRepository(kv KV, maxSlots int) *SaveRepository {
	return &SaveRepository{kv: kv, maxSlots: maxSlots}
}

// SaveCurrent persists the autosaved run.
func (r *SaveRepository) SaveCurrent(ctx context.Context, playerID uuid.UUID, save *models.SaveV1) error {
	return r.put(ctx, currentKey(playerID), save)
}

// LoadCurrent loads the autosaved run. Missing saves return ErrNotFound;
// unparseable payloads return ErrCorrupt.
func (r *SaveRepository) LoadCurrent(ctx context.Context, playerID uuid.UUID) (*models.SaveV1, error) {
	return r.get(ctx, currentKey(playerID))
}

// DeleteCurrent removes the autosaved run (new game from scratch).
func (r *SaveRepository) DeleteCurrent(ctx context.Context, playerID uuid.UUID) error {
	return r.kv.Delete(ctx, currentKey(playerID))
}

// SaveSlot writes a named slot. Creating a new slot past the per-player
// limit fails; overwriting an existing slot is always allowed.
func (r *SaveRepository) SaveSlot(ctx context.Context, playerID uuid.UUID, slot string, save *models.SaveV1) error {
	if err := validateSlotName(slot); err != nil {
		return err
	}
	key := slotKey(playerID, slot)
	if _, err := r.kv.Get(ctx, key); errors.Is(err, ErrNotFound) {
		existing, err := r.kv.Keys(ctx, slotPattern(playerID))
		if err != nil {
			return errors.Wrap(err, "failed to count save slots")
		}
		if len(existing) >= r.maxSlots {
			return errors.Errorf("save slot limit reached (%d)", r.maxSlots)
		}
	}
	return r.put(ctx, key, save)
}

// LoadSlot loads a named slot.
func (r *SaveRepository) LoadSlot(ctx context.Context, playerID uuid.UUID, slot string) (*models.SaveV1, error) {
	if err := validateSlotName(slot); err != nil {
		return nil, err
	}
	return r.get(ctx, slotKey(playerID, slot))
}

// DeleteSlot removes a named slot; deleting a missing slot is a no-op.
func (r *SaveRepository) DeleteSlot(ctx context.Context, playerID uuid.UUID, slot string) error {
	if err := validateSlotName(slot); err != nil {
		return err
	}
	return r.kv.Delete(ctx, slotKey(playerID, slot))
}

// ListSlots returns the player's slots, newest first. Corrupt slots are
// skipped rather than failing the listing.
func (r *SaveRepository) ListSlots(ctx context.Context, playerID uuid.UUID) ([]SlotInfo, error) {
	keys, err := r.kv.Keys(ctx, slotPattern(playerID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list save slots")
	}

	prefix := slotKey(playerID, "")
	infos := make([]SlotInfo, 0, len(keys))
	for _, key := range keys {
		save, err := r.get(ctx, key)
		if err != nil {
			continue
		}
		earned, err := decimal.NewFromString(save.Shapes.Earned)
		if err != nil {
			earned = decimal.Zero
		}
		infos = append(infos, SlotInfo{
			Slot:      strings.TrimPrefix(key, prefix),
			SavedAt:   time.UnixMilli(save.LastSaveTime),
			Earned:    earned,
			Prestiges: save.Stats.TotalPrestiges,
			Version:   save.Version,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SavedAt.After(infos[j].SavedAt)
	})
	return infos, nil
}

// SaveSettings persists player preferences.
func (r *SaveRepository) SaveSettings(ctx context.Context, playerID uuid.UUID, settings PlayerSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}
	return r.kv.Set(ctx, settingsKey(playerID), string(data))
}

// LoadSettings returns stored preferences, or the defaults when none exist
// or the payload is unreadable.
func (r *SaveRepository) LoadSettings(ctx context.Context, playerID uuid.UUID) (PlayerSettings, error) {
	raw, err := r.kv.Get(ctx, settingsKey(playerID))
	if errors.Is(err, ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return DefaultSettings(), err
	}
	var settings PlayerSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return DefaultSettings(), nil
	}
	return settings, nil
}

func (r *SaveRepository) put(ctx context.Context, key string, save *models.SaveV1) error {
	data, err := json.Marshal(save)
	if err != nil {
		metrics.RecordSave("kv", "error")
		return errors.Wrap(err, "failed to marshal save")
	}
	if err := r.kv.Set(ctx, key, string(data)); err != nil {
		metrics.RecordSave("kv", "error")
		return err
	}
	metrics.RecordSave("kv", "success")
	return nil
}

func (r *SaveRepository) get(ctx context.Context, key string) (*models.SaveV1, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var save models.SaveV1
	if err := json.Unmarshal([]byte(raw), &save); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "failed to unmarshal save at %s: %v", key, err)
	}
	return &save, nil
}

func validateSlotName(slot string) error {
	if slot == "" || len(slot) > 64 {
		return errors.New("slot name must be 1-64 characters")
	}
	for _, r := range slot {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
		default:
			return errors.Errorf("slot name contains invalid character %q", r)
		}
	}
	return nil
}

// ApplyOfflineProgress credits production for the wall-clock span since the
// save, using the rate recorded at save time. Elapsed time clamps to zero on
// clock skew and caps at maxCredit; applied exactly once per load.
func ApplyOfflineProgress(state *game.State, savedRate decimal.Decimal, now time.Time, maxCredit time.Duration) (time.Duration, decimal.Decimal) {
	elapsed := now.Sub(state.LastSaveTime)
	if elapsed < 0 {
		elapsed = 0
	}
	if maxCredit > 0 && elapsed > maxCredit {
		elapsed = maxCredit
	}
	if elapsed == 0 || savedRate.LessThanOrEqual(decimal.Zero) {
		return elapsed, decimal.Zero
	}

	gained := savedRate.Mul(decimal.NewFromFloat(elapsed.Seconds()))
	state.Shapes.Amount = state.Shapes.Amount.Add(gained)
	state.Shapes.Earned = state.Shapes.Earned.Add(gained)
	if state.Shapes.Amount.GreaterThan(state.Stats.HighestShapes) {
		state.Stats.HighestShapes = state.Shapes.Amount
	}
	metrics.OfflineProgressSeconds.Observe(elapsed.Seconds())
	return elapsed, gained
}
