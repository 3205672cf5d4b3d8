// Package scheduler ranks due reviews and derives recommendations, badges and
// dashboard figures from the progress document. It never mutates progress.
package scheduler

import (
	"math"
	"sort"

	"github.com/yangwenmai/laosrs/internal/model"
	"github.com/yangwenmai/laosrs/internal/progress"
)

// MaxDue caps the ranked due list.
const MaxDue = 10

// ItemSource is the read side of the progress store.
type ItemSource interface {
	Items() []model.ProgressItem
	Stats() model.ProgressStats
}

// Scheduler reads from an ItemSource on every call; it keeps no copy of the
// items, so results always reflect the latest review.
type Scheduler struct {
	src        ItemSource
	clock      progress.Clock
	difficulty DifficultyFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c progress.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithDifficultyFunc replaces the item difficulty estimate.
func WithDifficultyFunc(fn DifficultyFunc) Option {
	return func(s *Scheduler) { s.difficulty = fn }
}

// WithDifficulties uses explicit per-item difficulties, falling back to the
// id heuristic for items not in m.
func WithDifficulties(m map[string]int) Option {
	return func(s *Scheduler) { s.difficulty = FromMap(m, EstimateDifficulty) }
}

// New creates a Scheduler over src.
func New(src ItemSource, opts ...Option) *Scheduler {
	s := &Scheduler{
		src:        src,
		clock:      progress.SystemClock,
		difficulty: EstimateDifficulty,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DueItem is one entry of the ranked review queue.
type DueItem struct {
	ItemID       string         `json:"itemId"`
	DaysUntilDue int            `json:"daysUntilDue"`
	SrsState     model.SrsState `json:"srsState"`
	Priority     float64        `json:"priority"`
}

// DueForReview returns up to MaxDue due items, most urgent first. Mastered
// items inside their cooldown are never returned. Ties keep document order.
func (s *Scheduler) DueForReview() []DueItem {
	now := s.clock.Now().UnixMilli()
	due := []DueItem{}
	for _, it := range s.src.Items() {
		if it.SrsState == model.StateMastered && it.InCooldown(now) {
			continue
		}
		if it.NextReviewDate > now {
			continue
		}
		due = append(due, DueItem{
			ItemID:       it.ID,
			DaysUntilDue: daysUntil(it.NextReviewDate, now),
			SrsState:     it.SrsState,
			Priority:     Priority(it, now),
		})
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Priority > due[j].Priority
	})
	if len(due) > MaxDue {
		due = due[:MaxDue]
	}
	return due
}

// Priority scores how urgently it should be reviewed at now. Higher is more
// urgent. Every ease point costs ten, so among items of one state the
// harder ones come first.
func Priority(it model.ProgressItem, now int64) float64 {
	var p float64
	switch it.SrsState {
	case model.StateLearning:
		p = 100
	case model.StateNew:
		p = 75
	case model.StateReview:
		p = 50
	}
	p -= it.EaseFactor * 10
	overdue := math.Max(0, float64(now-it.NextReviewDate)/float64(model.DayMillis))
	return p + overdue*5
}

// daysUntil is zero for anything already due.
func daysUntil(next, now int64) int {
	d := math.Floor(float64(next-now) / float64(model.DayMillis))
	if d < 0 {
		return 0
	}
	return int(d)
}
