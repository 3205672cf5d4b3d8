// Package progress owns the learner's progress document: per-item SRS records,
// level unlocks, aggregate stats and settings. Every mutation is applied in
// memory first and then written through to a key-value backend.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yangwenmai/laosrs/internal/model"
	"github.com/yangwenmai/laosrs/internal/store"
)

// Store is the progress document holder. Independent instances share nothing,
// and all methods are safe for concurrent use.
type Store struct {
	kv    store.KV
	clock Clock
	loc   *time.Location
	log   log.FieldLogger

	mu       sync.RWMutex
	data     model.ProgressData
	settings model.UserSettings

	errMu   sync.Mutex
	lastErr error

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLocation sets the time zone that decides calendar-day boundaries for
// daily counters and streaks. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a Store holding default documents. Call Load to read the
// persisted state.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		clock:     SystemClock,
		loc:       time.Local,
		log:       log.StandardLogger(),
		observers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "progress")
	now := s.nowMillis()
	s.data = model.DefaultProgress(now)
	s.settings = model.DefaultSettings(now)
	return s
}

func (s *Store) nowMillis() int64 {
	return s.clock.Now().UnixMilli()
}

// ---------------------------------------------------------------------------
// Load / persist
// ---------------------------------------------------------------------------

// Load reads both documents from the backend. A missing document starts from
// defaults; an unreadable or invalid one is recorded in Err, logged, and also
// replaced by defaults. Load never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	now := s.nowMillis()
	s.data = s.loadProgress(ctx, now)
	s.settings = s.loadSettings(ctx, now)
	s.mu.Unlock()

	s.notify(Event{Kind: EventLoaded})
}

func (s *Store) loadProgress(ctx context.Context, now int64) model.ProgressData {
	raw, ok, err := s.kv.Get(ctx, model.ProgressKey)
	if err != nil {
		s.recordErr(fmt.Errorf("load progress: %w", err))
		return model.DefaultProgress(now)
	}
	if !ok || raw == "" {
		return model.DefaultProgress(now)
	}
	data, err := model.ParseProgress([]byte(raw))
	if err != nil {
		s.recordErr(fmt.Errorf("load progress: %w", err))
		return model.DefaultProgress(now)
	}
	s.log.WithFields(log.Fields{
		"items":  len(data.Items),
		"levels": len(data.Levels),
	}).Debug("progress loaded")
	return *data
}

func (s *Store) loadSettings(ctx context.Context, now int64) model.UserSettings {
	raw, ok, err := s.kv.Get(ctx, model.SettingsKey)
	if err != nil {
		s.recordErr(fmt.Errorf("load settings: %w", err))
		return model.DefaultSettings(now)
	}
	if !ok || raw == "" {
		return model.DefaultSettings(now)
	}
	sett, err := model.ParseSettings([]byte(raw))
	if err != nil {
		s.recordErr(fmt.Errorf("load settings: %w", err))
		return model.DefaultSettings(now)
	}
	return *sett
}

// persistProgress writes the progress document. Caller holds s.mu.
// A failed write is logged and recorded; the in-memory state is kept.
// Writes ignore cancellation of ctx.
func (s *Store) persistProgress(ctx context.Context) {
	s.data.LastUpdated = s.nowMillis()
	raw, err := json.Marshal(s.data)
	if err != nil {
		s.recordErr(&PersistError{Key: model.ProgressKey, Err: err})
		return
	}
	if err := s.kv.Set(context.WithoutCancel(ctx), model.ProgressKey, string(raw)); err != nil {
		s.recordErr(&PersistError{Key: model.ProgressKey, Err: err})
	}
}

// persistSettings writes the settings document. Caller holds s.mu.
func (s *Store) persistSettings(ctx context.Context) {
	s.settings.LastUpdated = s.nowMillis()
	raw, err := json.Marshal(s.settings)
	if err != nil {
		s.recordErr(&PersistError{Key: model.SettingsKey, Err: err})
		return
	}
	if err := s.kv.Set(context.WithoutCancel(ctx), model.SettingsKey, string(raw)); err != nil {
		s.recordErr(&PersistError{Key: model.SettingsKey, Err: err})
	}
}

// PersistError reports a failed write to the backend.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return "persist " + e.Key + ": " + e.Err.Error()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// recordErr stores err for Err and logs it. Safe with or without s.mu held.
func (s *Store) recordErr(err error) {
	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()
	s.log.WithError(err).Error("progress store error")
}

// Err returns the most recent load, import or persistence error, or nil.
func (s *Store) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// ---------------------------------------------------------------------------
// Review outcomes
// ---------------------------------------------------------------------------

// UpdateItemProgress records one review outcome for id, creating the item on
// first sight, advances its SRS state, refreshes the aggregate stats and
// persists the document. It returns the updated item.
//
// An empty id or an unknown item type is rejected before anything changes.
func (s *Store) UpdateItemProgress(ctx context.Context, id string, itemType model.ItemType, isCorrect bool) (model.ProgressItem, error) {
	if id == "" {
		return model.ProgressItem{}, model.ErrEmptyItemID
	}
	if !itemType.Valid() {
		return model.ProgressItem{}, fmt.Errorf("%w: %q", model.ErrInvalidItemType, itemType)
	}

	s.mu.Lock()
	now := s.nowMillis()
	idx := s.data.FindItem(id)
	if idx < 0 {
		s.data.Items = append(s.data.Items, model.NewProgressItem(id, itemType, now))
		idx = len(s.data.Items) - 1
	}
	item := &s.data.Items[idx]
	item.RecordReview(isCorrect, now)
	updated := item.Clone()

	activeToday := model.SameDay(s.data.Stats.LastActivityDate, now, s.loc)
	s.data.Stats.RecordReview(isCorrect, now, activeToday, s.data.Items)
	s.persistProgress(ctx)
	s.mu.Unlock()

	s.log.WithFields(log.Fields{
		"item_id": id,
		"correct": isCorrect,
		"state":   updated.SrsState,
	}).Debug("review recorded")
	s.notify(Event{Kind: EventItemUpdated, ItemID: id})
	return updated, nil
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

// Items returns a copy of every item record.
func (s *Store) Items() []model.ProgressItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ProgressItem, len(s.data.Items))
	for i, it := range s.data.Items {
		out[i] = it.Clone()
	}
	return out
}

// Levels returns a copy of every level record.
func (s *Store) Levels() []model.LevelProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LevelProgress, len(s.data.Levels))
	for i, l := range s.data.Levels {
		out[i] = l.Clone()
	}
	return out
}

// Stats returns the aggregate stats.
func (s *Store) Stats() model.ProgressStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Stats
}

// Snapshot returns a copy of the whole progress document.
func (s *Store) Snapshot() model.ProgressData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// CurrentStreak returns stats.currentStreak.
func (s *Store) CurrentStreak() int { return s.Stats().CurrentStreak }

// TotalXPEarned returns stats.totalXpEarned.
func (s *Store) TotalXPEarned() int { return s.Stats().TotalXPEarned }

// AverageAccuracy returns stats.averageAccuracy.
func (s *Store) AverageAccuracy() int { return s.Stats().AverageAccuracy }

// ItemsByState returns the items currently in state.
func (s *Store) ItemsByState(state model.SrsState) []model.ProgressItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ProgressItem
	for _, it := range s.data.Items {
		if it.SrsState == state {
			out = append(out, it.Clone())
		}
	}
	return out
}

// ItemsDueForReview returns, unranked, the items whose next review time has
// passed. Items still inside a cooldown window are skipped whatever their
// state. See scheduler.DueForReview for the prioritised list.
func (s *Store) ItemsDueForReview() []model.ProgressItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.nowMillis()
	var out []model.ProgressItem
	for _, it := range s.data.Items {
		if it.InCooldown(now) {
			continue
		}
		if it.IsDue(now) {
			out = append(out, it.Clone())
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Levels
// ---------------------------------------------------------------------------

// LevelProgress returns the record for levelID, if one has been created.
func (s *Store) LevelProgress(levelID string) (model.LevelProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.data.FindLevel(levelID); i >= 0 {
		return s.data.Levels[i].Clone(), true
	}
	return model.LevelProgress{}, false
}

// IsLevelUnlocked reports whether levelID has been unlocked.
func (s *Store) IsLevelUnlocked(levelID string) bool {
	l, ok := s.LevelProgress(levelID)
	return ok && l.IsUnlocked
}

// UnlockLevel creates the level record if needed, marks it unlocked and stamps
// its start date. Repeated calls move the start date to the latest call.
func (s *Store) UnlockLevel(ctx context.Context, levelID string) (model.LevelProgress, error) {
	if levelID == "" {
		return model.LevelProgress{}, model.ErrEmptyLevelID
	}

	s.mu.Lock()
	idx := s.data.FindLevel(levelID)
	if idx < 0 {
		s.data.Levels = append(s.data.Levels, model.NewLevelProgress(levelID))
		idx = len(s.data.Levels) - 1
	}
	s.data.Levels[idx].Unlock(s.nowMillis())
	level := s.data.Levels[idx].Clone()
	s.persistProgress(ctx)
	s.mu.Unlock()

	s.log.WithField("level_id", levelID).Info("level unlocked")
	s.notify(Event{Kind: EventLevelUnlocked, LevelID: levelID})
	return level, nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// Settings returns the current user settings.
func (s *Store) Settings() model.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings merges patch into the settings and persists them.
func (s *Store) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.UserSettings, error) {
	s.mu.Lock()
	updated, err := s.settings.Apply(patch)
	if err != nil {
		s.mu.Unlock()
		return s.Settings(), err
	}
	s.settings = updated
	s.persistSettings(ctx)
	updated = s.settings
	s.mu.Unlock()

	s.notify(Event{Kind: EventSettingsUpdated})
	return updated, nil
}

// ---------------------------------------------------------------------------
// Export / import / reset
// ---------------------------------------------------------------------------

// ExportProgress serialises the progress document as indented JSON.
func (s *Store) ExportProgress() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export progress: %w", err)
	}
	return string(raw), nil
}

// ImportProgress replaces the progress document with the one in raw. On any
// parse or validation failure it records the error, leaves the current state
// untouched and returns false.
func (s *Store) ImportProgress(ctx context.Context, raw string) bool {
	data, err := model.ParseProgress([]byte(raw))
	if err != nil {
		s.recordErr(fmt.Errorf("import progress: %w", err))
		return false
	}

	s.mu.Lock()
	s.data = *data
	s.persistProgress(ctx)
	s.mu.Unlock()

	s.log.WithField("items", len(data.Items)).Info("progress imported")
	s.notify(Event{Kind: EventImported})
	return true
}

// ClearAllProgress deletes both persisted documents and resets the in-memory
// state to defaults. It cannot be undone.
func (s *Store) ClearAllProgress(ctx context.Context) {
	s.mu.Lock()
	wctx := context.WithoutCancel(ctx)
	for _, key := range []string{model.ProgressKey, model.SettingsKey} {
		if err := s.kv.Remove(wctx, key); err != nil {
			s.recordErr(&PersistError{Key: key, Err: err})
		}
	}
	now := s.nowMillis()
	s.data = model.DefaultProgress(now)
	s.settings = model.DefaultSettings(now)
	s.mu.Unlock()

	s.log.Warn("all progress cleared")
	s.notify(Event{Kind: EventCleared})
}
