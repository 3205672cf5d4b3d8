package model

import (
	"math"
	"time"
)

// XP awarded for each correct answer.
const XPPerCorrect = 5

// ProgressStats holds the aggregate counters for one learner.
type ProgressStats struct {
	TotalReviewsToday   int   `json:"totalReviewsToday"`
	TotalReviewsAllTime int   `json:"totalReviewsAllTime"`
	CurrentStreak       int   `json:"currentStreak"`
	LongestStreak       int   `json:"longestStreak"`
	LastActivityDate    int64 `json:"lastActivityDate"`
	TotalXPEarned       int   `json:"totalXpEarned"`
	AverageAccuracy     int   `json:"averageAccuracy"` // 0-100
}

// DefaultStats returns zeroed stats with the activity date stamped at now.
func DefaultStats(now int64) ProgressStats {
	return ProgressStats{LastActivityDate: now}
}

// RecordReview folds one review outcome into the counters. activeToday tells
// whether the previous activity fell on the same calendar day as now; items is
// the full item list after the review was applied.
//
// The streak only looks at "was there activity today": a gap of several days
// resets it, but so does the first review of every new day.
func (s *ProgressStats) RecordReview(isCorrect bool, now int64, activeToday bool, items []ProgressItem) {
	if isCorrect {
		if activeToday {
			s.TotalReviewsToday++
		} else {
			s.TotalReviewsToday = 1
		}
		s.TotalReviewsAllTime++
		s.TotalXPEarned += XPPerCorrect
	}

	s.LastActivityDate = now
	s.AverageAccuracy = Accuracy(items)

	if activeToday {
		s.CurrentStreak++
	} else {
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
}

// Accuracy returns round(100 * correct / reviews) over items, or 0 when
// nothing has been reviewed.
func Accuracy(items []ProgressItem) int {
	var reviews, correct int
	for _, it := range items {
		reviews += it.ReviewCount
		correct += it.CorrectCount
	}
	if reviews == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(reviews) * 100))
}

// SameDay reports whether two epoch-millisecond instants fall on the same
// calendar day in loc.
func SameDay(a, b int64, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ta := time.UnixMilli(a).In(loc)
	tb := time.UnixMilli(b).In(loc)
	ya, ma, da := ta.Date()
	yb, mb, db := tb.Date()
	return ya == yb && ma == mb && da == db
}
