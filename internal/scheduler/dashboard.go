package scheduler

import "github.com/yangwenmai/laosrs/internal/model"

// Dashboard is the summary shown on the learner's home screen.
type Dashboard struct {
	TotalSessionsToday   int `json:"totalSessionsToday"`
	TotalSessionsAllTime int `json:"totalSessionsAllTime"`
	CurrentStreak        int `json:"currentStreak"`
	LongestStreak        int `json:"longestStreak"`
	TotalXPEarned        int `json:"totalXpEarned"`
	AverageAccuracy      int `json:"averageAccuracy"`
	MasteredCount        int `json:"masteredCount"`
	LearningCount        int `json:"learningCount"`
	ReviewCount          int `json:"reviewCount"`
	ItemsDueToday        int `json:"itemsDueToday"`
	Badges               int `json:"badges"`
}

// Dashboard assembles the home-screen figures. ItemsDueToday counts the
// ranked queue, so it never exceeds MaxDue.
func (s *Scheduler) Dashboard() Dashboard {
	st := s.src.Stats()
	d := Dashboard{
		TotalSessionsToday:   st.TotalReviewsToday,
		TotalSessionsAllTime: st.TotalReviewsAllTime,
		CurrentStreak:        st.CurrentStreak,
		LongestStreak:        st.LongestStreak,
		TotalXPEarned:        st.TotalXPEarned,
		AverageAccuracy:      st.AverageAccuracy,
		ItemsDueToday:        len(s.DueForReview()),
		Badges:               len(s.EarnedBadges()),
	}
	for _, it := range s.src.Items() {
		switch it.SrsState {
		case model.StateMastered:
			d.MasteredCount++
		case model.StateLearning:
			d.LearningCount++
		case model.StateReview:
			d.ReviewCount++
		}
	}
	return d
}
