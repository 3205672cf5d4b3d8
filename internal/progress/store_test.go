package progress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yangwenmai/laosrs/internal/model"
	"github.com/yangwenmai/laosrs/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
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

// flakyKV fails writes while failSet is true.
type flakyKV struct {
	*store.MemoryKV
	failSet bool
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestStore(t *testing.T, kv store.KV, clock *fakeClock) *Store {
	t.Helper()
	s := New(kv, WithClock(clock), WithLocation(time.UTC), WithLogger(quietLogger()))
	s.Load(context.Background())
	return s
}

const day = 24 * time.Hour

func marshalForTest(v any) (string, error) {
	raw, err := json.Marshal(v)
	return string(raw), err
}

func TestNew_Defaults(t *testing.T) {
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	if n := len(s.Items()); n != 0 {
		t.Errorf("items = %d, want 0", n)
	}
	if n := len(s.Levels()); n != 0 {
		t.Errorf("levels = %d, want 0", n)
	}
	st := s.Stats()
	if st.CurrentStreak != 0 || st.TotalReviewsAllTime != 0 || st.AverageAccuracy != 0 {
		t.Errorf("default stats = %+v", st)
	}
	if s.Err() != nil {
		t.Errorf("Err = %v, want nil", s.Err())
	}
	if s.Settings().Theme != model.ThemeMinimal {
		t.Errorf("default theme = %q", s.Settings().Theme)
	}
}

func TestUpdateItemProgress_Scenario(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, store.NewMemory(), clock)

	if _, err := s.UpdateItemProgress(ctx, "char_1", model.ItemCharacter, true); err != nil {
		t.Fatalf("UpdateItemProgress: %v", err)
	}
	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	it := items[0]
	if it.SrsState != model.StateLearning || it.ReviewCount != 1 || it.CorrectCount != 1 {
		t.Errorf("item after first review = %+v", it)
	}
	if math.Abs(it.EaseFactor-2.1) > 1e-9 {
		t.Errorf("EaseFactor = %v, want 2.1", it.EaseFactor)
	}

	s.UpdateItemProgress(ctx, "char_1", model.ItemCharacter, true)
	if got := s.Items()[0].SrsState; got != model.StateReview {
		t.Errorf("after second review SrsState = %q, want review", got)
	}

	masteredAt := clock.Now().UnixMilli()
	s.UpdateItemProgress(ctx, "char_1", model.ItemCharacter, true)
	it = s.Items()[0]
	if it.SrsState != model.StateMastered {
		t.Fatalf("after third review SrsState = %q, want mastered", it.SrsState)
	}
	want := masteredAt + 365*model.DayMillis
	if it.CooldownUntil == nil || *it.CooldownUntil != want {
		t.Errorf("CooldownUntil = %v, want %d", it.CooldownUntil, want)
	}
}

func TestUpdateItemProgress_IncorrectOnNew(t *testing.T) {
	s := newTestStore(t, store.NewMemory(), newFakeClock())
	it, err := s.UpdateItemProgress(context.Background(), "char_1", model.ItemCharacter, false)
	if err != nil {
		t.Fatalf("UpdateItemProgress: %v", err)
	}
	if it.SrsState != model.StateNew {
		t.Errorf("SrsState = %q, want new", it.SrsState)
	}
	if it.IncorrectCount != 1 {
		t.Errorf("IncorrectCount = %d, want 1", it.IncorrectCount)
	}
	if math.Abs(it.EaseFactor-1.8) > 1e-9 {
		t.Errorf("EaseFactor = %v, want 1.8", it.EaseFactor)
	}
}

func TestUpdateItemProgress_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	if _, err := s.UpdateItemProgress(ctx, "", model.ItemWord, true); !errors.Is(err, model.ErrEmptyItemID) {
		t.Errorf("empty id error = %v, want ErrEmptyItemID", err)
	}
	if _, err := s.UpdateItemProgress(ctx, "w1", model.ItemType("sentence"), true); !errors.Is(err, model.ErrInvalidItemType) {
		t.Errorf("bad type error = %v, want ErrInvalidItemType", err)
	}
	if n := len(s.Items()); n != 0 {
		t.Errorf("items = %d after rejected calls, want 0", n)
	}
	if s.Stats().TotalReviewsAllTime != 0 {
		t.Error("stats changed after rejected calls")
	}
}

func TestUpdateItemProgress_MonotonicCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	outcomes := []bool{true, false, true, true, false, false, true, true, true, false}
	for i, ok := range outcomes {
		it, err := s.UpdateItemProgress(ctx, "word_1", model.ItemWord, ok)
		if err != nil {
			t.Fatalf("UpdateItemProgress: %v", err)
		}
		if it.ReviewCount != i+1 {
			t.Fatalf("ReviewCount = %d, want %d", it.ReviewCount, i+1)
		}
		if it.CorrectCount+it.IncorrectCount != it.ReviewCount {
			t.Fatalf("correct+incorrect = %d, reviews = %d", it.CorrectCount+it.IncorrectCount, it.ReviewCount)
		}
	}
}

func TestUpdateItemProgress_Accuracy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	s.UpdateItemProgress(ctx, "b", model.ItemPhrase, true)
	s.UpdateItemProgress(ctx, "b", model.ItemPhrase, false)

	if got := s.AverageAccuracy(); got != 75 {
		t.Errorf("AverageAccuracy = %d, want 75", got)
	}
}

func TestUpdateItemProgress_Stats(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, store.NewMemory(), clock)

	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	st := s.Stats()
	if st.TotalReviewsAllTime != 1 || st.TotalXPEarned != 5 || st.TotalReviewsToday != 1 {
		t.Errorf("stats after one correct = %+v", st)
	}
	if st.LastActivityDate != clock.Now().UnixMilli() {
		t.Errorf("LastActivityDate = %d, want now", st.LastActivityDate)
	}

	s.UpdateItemProgress(ctx, "a", model.ItemWord, false)
	st = s.Stats()
	if st.TotalReviewsAllTime != 1 || st.TotalXPEarned != 5 {
		t.Errorf("incorrect answer changed review counters: %+v", st)
	}
}

// The streak counts "was there activity earlier today", so every review on
// the same day extends it and the first review of a later day resets it.
func TestUpdateItemProgress_Streak(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, store.NewMemory(), clock)

	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	s.UpdateItemProgress(ctx, "b", model.ItemWord, true)
	if got := s.CurrentStreak(); got != 2 {
		t.Errorf("same-day streak = %d, want 2", got)
	}

	clock.Advance(2 * day)
	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	st := s.Stats()
	if st.CurrentStreak != 1 {
		t.Errorf("streak after gap = %d, want 1", st.CurrentStreak)
	}
	if st.LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", st.LongestStreak)
	}
	if st.TotalReviewsToday != 1 {
		t.Errorf("TotalReviewsToday = %d, want 1 on a new day", st.TotalReviewsToday)
	}
	if st.LongestStreak < st.CurrentStreak {
		t.Error("LongestStreak below CurrentStreak")
	}
}

func TestPersistence_RoundTripThroughBackend(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	clock := newFakeClock()
	s := newTestStore(t, kv, clock)

	s.UpdateItemProgress(ctx, "char_1", model.ItemCharacter, true)
	s.UnlockLevel(ctx, "level_1")

	raw, ok, _ := kv.Get(ctx, model.ProgressKey)
	if !ok || !strings.Contains(raw, `"char_1"`) {
		t.Fatalf("progress document not persisted: %q", raw)
	}

	s2 := newTestStore(t, kv, clock)
	if !reflect.DeepEqual(s2.Items(), s.Items()) {
		t.Errorf("reloaded items differ:\n got %+v\nwant %+v", s2.Items(), s.Items())
	}
	if !s2.IsLevelUnlocked("level_1") {
		t.Error("reloaded store lost level unlock")
	}
	if s2.Stats() != s.Stats() {
		t.Errorf("reloaded stats = %+v, want %+v", s2.Stats(), s.Stats())
	}
}

func TestLoad_InvalidDocumentFallsBack(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{ not json"},
		{"wrong version", `{"version":"0.1.0","items":[],"levels":[],"stats":{}}`},
		{"items not array", `{"version":"1.0.0","items":"x","levels":[],"stats":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := store.NewMemory()
			kv.Set(context.Background(), model.ProgressKey, tt.raw)

			s := newTestStore(t, kv, newFakeClock())

			var se *model.SchemaError
			if !errors.As(s.Err(), &se) {
				t.Fatalf("Err = %v, want *SchemaError", s.Err())
			}
			if n := len(s.Items()); n != 0 {
				t.Errorf("items = %d, want 0", n)
			}
			if s.Snapshot().Version != model.SchemaVersion {
				t.Error("fallback document has wrong version")
			}
		})
	}
}

func TestLoad_InvalidSettingsFallsBack(t *testing.T) {
	kv := store.NewMemory()
	kv.Set(context.Background(), model.SettingsKey, `{"version":"9","theme":"playful"}`)

	s := newTestStore(t, kv, newFakeClock())
	if s.Err() == nil {
		t.Error("Err = nil, want settings schema error")
	}
	if s.Settings().Theme != model.ThemeMinimal {
		t.Errorf("Theme = %q, want default", s.Settings().Theme)
	}
}

func TestPersistFailure_KeepsMemoryState(t *testing.T) {
	kv := &flakyKV{MemoryKV: store.NewMemory(), failSet: true}
	s := newTestStore(t, kv, newFakeClock())

	it, err := s.UpdateItemProgress(context.Background(), "a", model.ItemWord, true)
	if err != nil {
		t.Fatalf("UpdateItemProgress returned %v; write failures must not surface", err)
	}
	if it.ReviewCount != 1 || len(s.Items()) != 1 {
		t.Error("in-memory mutation was rolled back")
	}
	var pe *PersistError
	if !errors.As(s.Err(), &pe) || pe.Key != model.ProgressKey {
		t.Errorf("Err = %v, want PersistError for progress key", s.Err())
	}
}

func openSQLiteKV(t *testing.T) *store.SQLiteKV {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	kv, err := store.NewSQLite(db)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	return kv
}

func TestCancelledContext_StillPersists(t *testing.T) {
	kv := openSQLiteKV(t)
	clock := newFakeClock()
	s := newTestStore(t, kv, clock)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.UpdateItemProgress(cancelled, "char_1", model.ItemCharacter, true); err != nil {
		t.Fatalf("UpdateItemProgress: %v", err)
	}
	if _, err := s.UnlockLevel(cancelled, "level_1"); err != nil {
		t.Fatalf("UnlockLevel: %v", err)
	}
	theme := model.ThemePlayful
	if _, err := s.UpdateSettings(cancelled, model.SettingsPatch{Theme: &theme}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Err = %v, want nil", err)
	}

	reloaded := newTestStore(t, kv, clock)
	if items := reloaded.Items(); len(items) != 1 || items[0].ID != "char_1" {
		t.Errorf("reloaded items = %+v, want [char_1]", items)
	}
	if !reloaded.IsLevelUnlocked("level_1") {
		t.Error("reloaded store lost level unlock")
	}
	if reloaded.Settings().Theme != model.ThemePlayful {
		t.Errorf("reloaded theme = %q, want playful", reloaded.Settings().Theme)
	}

	s.ClearAllProgress(cancelled)
	if err := s.Err(); err != nil {
		t.Fatalf("Err after clear = %v, want nil", err)
	}

	cleared := newTestStore(t, kv, clock)
	if n := len(cleared.Items()); n != 0 {
		t.Errorf("items after clear and reload = %d, want 0", n)
	}
	if cleared.IsLevelUnlocked("level_1") {
		t.Error("level unlock survived clear")
	}
	if cleared.Settings().Theme != model.ThemeMinimal {
		t.Errorf("theme after clear and reload = %q, want default", cleared.Settings().Theme)
	}
}

func TestReadModels_DoNotShareRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	var last model.ProgressItem
	for i := 0; i < 3; i++ {
		last, _ = s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	}
	s.UnlockLevel(ctx, "level_1")

	want := *s.Items()[0].CooldownUntil
	wantStart := *s.Levels()[0].StartDate

	*last.CooldownUntil = 0
	*s.Items()[0].CooldownUntil = 0
	*s.Items()[0].MasteredDate = 0
	*s.ItemsByState(model.StateMastered)[0].CooldownUntil = 0
	*s.Snapshot().Items[0].CooldownUntil = 0
	*s.Levels()[0].StartDate = 0
	*s.Snapshot().Levels[0].StartDate = 0
	if lp, ok := s.LevelProgress("level_1"); ok {
		*lp.StartDate = 0
	}

	got := s.Items()[0]
	if *got.CooldownUntil != want || *got.MasteredDate == 0 {
		t.Errorf("stored item changed through a returned copy: %+v", got)
	}
	if start := *s.Levels()[0].StartDate; start != wantStart {
		t.Errorf("stored StartDate = %d, want %d", start, wantStart)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	src := newTestStore(t, store.NewMemory(), clock)

	for i := 0; i < 3; i++ {
		src.UpdateItemProgress(ctx, "char_1", model.ItemCharacter, true)
	}
	src.UpdateItemProgress(ctx, "word_1", model.ItemWord, false)
	src.UnlockLevel(ctx, "level_1")

	exported, err := src.ExportProgress()
	if err != nil {
		t.Fatalf("ExportProgress: %v", err)
	}
	if !strings.Contains(exported, "\n  \"version\": \"1.0.0\"") {
		t.Errorf("export is not indented JSON:\n%s", exported)
	}

	dst := newTestStore(t, store.NewMemory(), clock)
	if !dst.ImportProgress(ctx, exported) {
		t.Fatalf("ImportProgress returned false: %v", dst.Err())
	}
	if !reflect.DeepEqual(dst.Items(), src.Items()) {
		t.Errorf("items differ after import")
	}
	if !reflect.DeepEqual(dst.Levels(), src.Levels()) {
		t.Errorf("levels differ after import")
	}
	if dst.Stats() != src.Stats() {
		t.Errorf("stats = %+v, want %+v", dst.Stats(), src.Stats())
	}
}

func TestImportProgress_InvalidLeavesState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())
	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	before := s.Snapshot()

	for _, raw := range []string{
		"{ not json",
		`{"version":"2.0.0","items":[],"levels":[],"stats":{}}`,
		`{"version":"1.0.0","items":[],"levels":[]}`,
	} {
		if s.ImportProgress(ctx, raw) {
			t.Errorf("ImportProgress(%q) = true, want false", raw)
		}
		if s.Err() == nil {
			t.Errorf("ImportProgress(%q) did not record an error", raw)
		}
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("failed import changed state")
	}
}

func TestItemsByState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())
	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	s.UpdateItemProgress(ctx, "b", model.ItemWord, false)

	learning := s.ItemsByState(model.StateLearning)
	if len(learning) != 1 || learning[0].ID != "a" {
		t.Errorf("learning = %+v, want [a]", learning)
	}
	if got := s.ItemsByState(model.StateMastered); len(got) != 0 {
		t.Errorf("mastered = %d, want 0", len(got))
	}
}

func TestItemsDueForReview(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, store.NewMemory(), clock)

	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	if n := len(s.ItemsDueForReview()); n != 0 {
		t.Errorf("due right after review = %d, want 0", n)
	}

	clock.Advance(day)
	due := s.ItemsDueForReview()
	if len(due) != 1 || due[0].ID != "a" {
		t.Errorf("due after a day = %+v, want [a]", due)
	}
}

func TestItemsDueForReview_CooldownExcluded(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, store.NewMemory(), clock)

	for i := 0; i < 3; i++ {
		s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	}
	masteredAt := clock.Now()

	// Force the schedule to have elapsed while the cooldown still runs.
	snap := s.Snapshot()
	snap.Items[0].NextReviewDate = masteredAt.Add(day).UnixMilli()
	raw, _ := marshalForTest(snap)
	if !s.ImportProgress(ctx, raw) {
		t.Fatal("import failed")
	}

	clock.Advance(30 * day)
	if n := len(s.ItemsDueForReview()); n != 0 {
		t.Errorf("due during cooldown = %d, want 0", n)
	}

	clock.Advance(336 * day)
	if n := len(s.ItemsDueForReview()); n != 1 {
		t.Errorf("due after cooldown = %d, want 1", n)
	}
}

func TestUnlockLevel(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, store.NewMemory(), clock)

	if s.IsLevelUnlocked("level_1") {
		t.Error("level_1 unlocked before UnlockLevel")
	}
	if _, ok := s.LevelProgress("level_1"); ok {
		t.Error("level record exists before UnlockLevel")
	}

	first, err := s.UnlockLevel(ctx, "level_1")
	if err != nil {
		t.Fatalf("UnlockLevel: %v", err)
	}
	if !s.IsLevelUnlocked("level_1") {
		t.Error("level_1 not unlocked")
	}
	if s.IsLevelUnlocked("level_2") {
		t.Error("level_2 unlocked unexpectedly")
	}

	clock.Advance(time.Hour)
	second, _ := s.UnlockLevel(ctx, "level_1")
	if len(s.Levels()) != 1 {
		t.Errorf("levels = %d, want 1", len(s.Levels()))
	}
	if *second.StartDate <= *first.StartDate {
		t.Errorf("StartDate not re-stamped: %d then %d", *first.StartDate, *second.StartDate)
	}

	if _, err := s.UnlockLevel(ctx, ""); !errors.Is(err, model.ErrEmptyLevelID) {
		t.Errorf("empty level error = %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := newTestStore(t, kv, newFakeClock())

	theme := model.ThemePlayful
	got, err := s.UpdateSettings(ctx, model.SettingsPatch{Theme: &theme})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.Theme != model.ThemePlayful || s.Settings().Theme != model.ThemePlayful {
		t.Errorf("Theme = %q, want playful", s.Settings().Theme)
	}
	raw, ok, _ := kv.Get(ctx, model.SettingsKey)
	if !ok || !strings.Contains(raw, `"playful"`) {
		t.Errorf("settings not persisted: %q", raw)
	}

	speed := 5.0
	if _, err := s.UpdateSettings(ctx, model.SettingsPatch{TTSSpeed: &speed}); !errors.Is(err, model.ErrInvalidSettings) {
		t.Errorf("error = %v, want ErrInvalidSettings", err)
	}
	if s.Settings().TTSSpeed != 1.0 {
		t.Error("rejected patch changed settings")
	}
}

func TestClearAllProgress(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := newTestStore(t, kv, newFakeClock())

	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	theme := model.ThemePlayful
	s.UpdateSettings(ctx, model.SettingsPatch{Theme: &theme})

	s.ClearAllProgress(ctx)

	if len(s.Items()) != 0 || s.Stats().TotalReviewsAllTime != 0 {
		t.Error("progress not reset")
	}
	if s.Settings().Theme != model.ThemeMinimal {
		t.Error("settings not reset")
	}
	for _, key := range []string{model.ProgressKey, model.SettingsKey} {
		if _, ok, _ := kv.Get(ctx, key); ok {
			t.Errorf("%s still persisted", key)
		}
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	var events []Event
	cancel := s.Subscribe(func(ev Event) {
		// Observers may read the store.
		_ = s.Stats()
		events = append(events, ev)
	})

	s.UpdateItemProgress(ctx, "a", model.ItemWord, true)
	s.UnlockLevel(ctx, "level_1")
	s.ImportProgress(ctx, "{ not json")
	cancel()
	s.ClearAllProgress(ctx)

	want := []Event{
		{Kind: EventItemUpdated, ItemID: "a"},
		{Kind: EventLevelUnlocked, LevelID: "level_1"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestIndependentInstances(t *testing.T) {
	ctx := context.Background()
	a := newTestStore(t, store.NewMemory(), newFakeClock())
	b := newTestStore(t, store.NewMemory(), newFakeClock())

	a.UpdateItemProgress(ctx, "x", model.ItemWord, true)
	if len(b.Items()) != 0 {
		t.Error("instances share state")
	}
}

func TestUpdateItemProgress_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewMemory(), newFakeClock())

	const workers, each = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				s.UpdateItemProgress(ctx, "shared", model.ItemWord, (w+i)%2 == 0)
			}
		}(w)
	}
	wg.Wait()

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].ReviewCount != workers*each {
		t.Errorf("ReviewCount = %d, want %d", items[0].ReviewCount, workers*each)
	}
}
