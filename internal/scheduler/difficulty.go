package scheduler

import (
	"fmt"
	"math"
	"strings"

	"github.com/yangwenmai/laosrs/internal/model"
)

// Difficulty bounds
const (
	MinDifficulty = 1
	MaxDifficulty = 4
)

// DifficultyFunc maps an item id to a difficulty between MinDifficulty and
// MaxDifficulty.
type DifficultyFunc func(itemID string) int

// EstimateDifficulty guesses a difficulty from the id alone.
func EstimateDifficulty(itemID string) int {
	switch {
	case strings.Contains(itemID, "consonant"), strings.Contains(itemID, "vowel"):
		return 1
	case strings.Contains(itemID, "tone"):
		return 2
	case strings.Contains(itemID, "phrase"):
		return 3
	}
	return 2
}

// FromMap looks ids up in m and defers to fallback for the rest.
func FromMap(m map[string]int, fallback DifficultyFunc) DifficultyFunc {
	return func(itemID string) int {
		if d, ok := m[itemID]; ok {
			return d
		}
		return fallback(itemID)
	}
}

// Metrics are the figures a recommendation was based on.
type Metrics struct {
	AverageAccuracy int `json:"averageAccuracy"`
	StreakDays      int `json:"streakDays"`
	MasteredCount   int `json:"masteredCount"`
	TotalAttempts   int `json:"totalAttempts"`
}

// Recommendation is the outcome of RecommendDifficulty.
type Recommendation struct {
	CurrentDifficulty     int     `json:"currentDifficulty"`
	RecommendedDifficulty int     `json:"recommendedDifficulty"`
	Reason                string  `json:"reason"`
	Metrics               Metrics `json:"metrics"`
}

// RecommendDifficulty looks at the items whose difficulty equals current and
// suggests moving up, moving down or staying.
//
// Up one (at most MaxDifficulty) needs 90% accuracy with at least 70% of the
// bucket mastered. Down one (at least MinDifficulty) needs accuracy under 60%
// over more than five attempts.
func (s *Scheduler) RecommendDifficulty(current int) Recommendation {
	var bucket []model.ProgressItem
	for _, it := range s.src.Items() {
		if s.difficulty(it.ID) == current {
			bucket = append(bucket, it)
		}
	}

	var mastered, attempts int
	for _, it := range bucket {
		if it.SrsState == model.StateMastered {
			mastered++
		}
		attempts += it.ReviewCount
	}
	accuracy := model.Accuracy(bucket)
	needMastered := int(math.Ceil(float64(len(bucket)) * 0.7))

	rec := Recommendation{
		CurrentDifficulty:     current,
		RecommendedDifficulty: current,
		Metrics: Metrics{
			AverageAccuracy: accuracy,
			StreakDays:      s.src.Stats().CurrentStreak,
			MasteredCount:   mastered,
			TotalAttempts:   attempts,
		},
	}
	switch {
	case accuracy >= 90 && mastered >= needMastered:
		rec.RecommendedDifficulty = min(MaxDifficulty, current+1)
		rec.Reason = fmt.Sprintf("Excellent performance! Ready for Level %d.", rec.RecommendedDifficulty)
	case accuracy < 60 && attempts > 5:
		rec.RecommendedDifficulty = max(MinDifficulty, current-1)
		rec.Reason = fmt.Sprintf("Consider reviewing Level %d fundamentals.", rec.RecommendedDifficulty)
	default:
		rec.Reason = fmt.Sprintf("Keep practicing Level %d. You're making progress!", current)
	}
	return rec
}
