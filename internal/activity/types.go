package activity

import (
	"fmt"

	"github.com/yangwenmai/laosrs/internal/model"
)

// Difficulty is the coarse difficulty an activity runs at.
type Difficulty string

// Difficulty constants
const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// InternalState is the per-session part of a ticket.
type InternalState struct {
	SessionID    string      `json:"sessionId"`
	UserID       string      `json:"userId,omitempty"`
	Theme        model.Theme `json:"theme"`
	AudioEnabled bool        `json:"audioEnabled"`
}

// Ticket configures one activity run.
type Ticket struct {
	ActivityID    string        `json:"activityId"`
	ActivityName  string        `json:"activityName"`
	LevelID       string        `json:"levelId"`
	LevelName     string        `json:"levelName"`
	Difficulty    Difficulty    `json:"difficulty"`
	ItemIDs       []string      `json:"itemIds"`
	InternalState InternalState `json:"internalState"`
}

// TicketRequest holds everything CreateTicket needs except the session id.
type TicketRequest struct {
	ActivityID   string      `json:"activityId"`
	ActivityName string      `json:"activityName"`
	LevelID      string      `json:"levelId"`
	LevelName    string      `json:"levelName"`
	Difficulty   Difficulty  `json:"difficulty"`
	ItemIDs      []string    `json:"itemIds"`
	UserID       string      `json:"userId,omitempty"`
	Theme        model.Theme `json:"theme"`
	AudioEnabled bool        `json:"audioEnabled"`
}

// Validate checks the fields a ticket cannot do without.
func (r TicketRequest) Validate() error {
	if r.ActivityID == "" {
		return fmt.Errorf("%w: activityId is required", ErrInvalidTicket)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty %q", ErrInvalidTicket, r.Difficulty)
	}
	if r.Theme != model.ThemeMinimal && r.Theme != model.ThemePlayful {
		return fmt.Errorf("%w: theme %q", ErrInvalidTicket, r.Theme)
	}
	return nil
}

// ItemMetric is the outcome for one item within an activity.
type ItemMetric struct {
	ItemID       string         `json:"itemId"`
	ItemType     model.ItemType `json:"itemType"`
	IsCorrect    bool           `json:"isCorrect"`
	ResponseTime int64          `json:"responseTime"` // ms
	AttemptCount int            `json:"attemptCount"`
}

// Evidence is the result of one activity run.
type Evidence struct {
	ActivityID     string       `json:"activityId"`
	SessionID      string       `json:"sessionId"`
	Timestamp      int64        `json:"timestamp"`
	Duration       int64        `json:"duration"` // ms
	ItemsProcessed int          `json:"itemsProcessed"`
	CorrectCount   int          `json:"correctCount"`
	IncorrectCount int          `json:"incorrectCount"`
	Accuracy       float64      `json:"accuracy"` // 0-100
	XPEarned       int          `json:"xpEarned"`
	ItemMetrics    []ItemMetric `json:"itemMetrics"`
	UserNotes      string       `json:"userNotes,omitempty"`
}

// Validate checks the evidence shape. Every failure wraps ErrInvalidEvidence.
func (e Evidence) Validate() error {
	switch {
	case e.ActivityID == "":
		return fmt.Errorf("%w: missing activityId", ErrInvalidEvidence)
	case e.SessionID == "":
		return fmt.Errorf("%w: missing sessionId", ErrInvalidEvidence)
	case e.Accuracy < 0 || e.Accuracy > 100:
		return fmt.Errorf("%w: accuracy must be 0-100", ErrInvalidEvidence)
	case e.ItemsProcessed < 0:
		return fmt.Errorf("%w: itemsProcessed must be non-negative", ErrInvalidEvidence)
	case e.CorrectCount < 0 || e.CorrectCount > e.ItemsProcessed:
		return fmt.Errorf("%w: correctCount out of range", ErrInvalidEvidence)
	case len(e.ItemMetrics) != e.ItemsProcessed:
		return fmt.Errorf("%w: itemMetrics length mismatch", ErrInvalidEvidence)
	}
	for i, m := range e.ItemMetrics {
		if m.ItemID == "" {
			return fmt.Errorf("%w: itemMetrics[%d] missing itemId", ErrInvalidEvidence, i)
		}
		if !m.ItemType.Valid() {
			return fmt.Errorf("%w: itemMetrics[%d] itemType %q", ErrInvalidEvidence, i, m.ItemType)
		}
	}
	return nil
}
