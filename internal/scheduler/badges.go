package scheduler

import "github.com/yangwenmai/laosrs/internal/model"

// Badge is an achievement with a fixed unlock rule.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// badgeStats are the inputs every badge rule reads.
type badgeStats struct {
	masteredCharacters int
	masteredWords      int
	streakDays         int
	accuracy           int
	xp                 int
}

type badgeRule struct {
	Badge
	earned func(badgeStats) bool
}

var catalog = []badgeRule{
	{Badge{"first_character", "First Steps", "Master your first character", "🎉"},
		func(b badgeStats) bool { return b.masteredCharacters >= 1 }},
	{Badge{"alphabet_explorer", "Alphabet Master", "Master 21+ consonants", "🔤"},
		func(b badgeStats) bool { return b.masteredCharacters >= 21 }},
	{Badge{"vocabulary_builder", "Word Collector", "Master 20+ vocabulary words", "📚"},
		func(b badgeStats) bool { return b.masteredWords >= 20 }},
	{Badge{"hundred_words", "Century Club", "Master 100+ vocabulary words", "💯"},
		func(b badgeStats) bool { return b.masteredWords >= 100 }},
	{Badge{"streak_7", "7-Day Grind", "Maintain a 7-day learning streak", "🔥"},
		func(b badgeStats) bool { return b.streakDays >= 7 }},
	{Badge{"streak_30", "Month Master", "Maintain a 30-day learning streak", "🌟"},
		func(b badgeStats) bool { return b.streakDays >= 30 }},
	{Badge{"accuracy_90", "Precision", "Achieve 90%+ accuracy on all activities", "🎯"},
		func(b badgeStats) bool { return b.accuracy >= 90 }},
	{Badge{"xp_500", "XP Warrior", "Earn 500+ XP", "⚡"},
		func(b badgeStats) bool { return b.xp >= 500 }},
	{Badge{"xp_2000", "XP Legend", "Earn 2000+ XP", "👑"},
		func(b badgeStats) bool { return b.xp >= 2000 }},
}

// AllBadges returns the full catalog in display order.
func (s *Scheduler) AllBadges() []Badge {
	out := make([]Badge, len(catalog))
	for i, r := range catalog {
		out[i] = r.Badge
	}
	return out
}

// EarnedBadges returns the badges the current progress qualifies for, in
// catalog order. They are evaluated on every call.
func (s *Scheduler) EarnedBadges() []Badge {
	b := s.badgeStats()
	out := []Badge{}
	for _, r := range catalog {
		if r.earned(b) {
			out = append(out, r.Badge)
		}
	}
	return out
}

func (s *Scheduler) badgeStats() badgeStats {
	st := s.src.Stats()
	b := badgeStats{
		streakDays: st.CurrentStreak,
		accuracy:   st.AverageAccuracy,
		xp:         st.TotalXPEarned,
	}
	for _, it := range s.src.Items() {
		if it.SrsState != model.StateMastered {
			continue
		}
		switch it.ItemType {
		case model.ItemCharacter:
			b.masteredCharacters++
		case model.ItemWord:
			b.masteredWords++
		}
	}
	return b
}
