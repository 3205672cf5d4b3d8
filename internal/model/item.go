package model

import "fmt"

// SrsState is the spaced-repetition state of a progress item.
type SrsState string

// SRS states, in learning order.
const (
	StateNew      SrsState = "new"
	StateLearning SrsState = "learning"
	StateReview   SrsState = "review"
	StateMastered SrsState = "mastered"
)

// Valid reports whether s is one of the four known states.
func (s SrsState) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateMastered:
		return true
	}
	return false
}

// ParseSrsState converts a raw string into a SrsState.
func ParseSrsState(s string) (SrsState, error) {
	st := SrsState(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSrsState, s)
	}
	return st, nil
}

// ItemType is the kind of learnable unit an item represents.
type ItemType string

// Item type constants
const (
	ItemCharacter ItemType = "character"
	ItemWord      ItemType = "word"
	ItemPhrase    ItemType = "phrase"
)

// Valid reports whether t is one of the three known item kinds.
func (t ItemType) Valid() bool {
	switch t {
	case ItemCharacter, ItemWord, ItemPhrase:
		return true
	}
	return false
}

// ParseItemType converts a raw string into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidItemType, s)
	}
	return t, nil
}

// DayMillis is the length of one scheduling day in milliseconds.
const DayMillis int64 = 24 * 60 * 60 * 1000

// Scheduling constants
const (
	DefaultEaseFactor   = 2.0
	MinEaseFactor       = 1.3
	MasteryCooldownDays = 365

	easeBonus   = 0.1
	easePenalty = 0.2

	learningInterval = 1
	reviewInterval   = 7
	masteredInterval = 365
)

// ProgressItem is the learning record for one character, word or phrase.
// All dates are epoch milliseconds.
type ProgressItem struct {
	ID             string   `json:"id"`
	ItemType       ItemType `json:"itemType"`
	SrsState       SrsState `json:"srsState"`
	ReviewCount    int      `json:"reviewCount"`
	CorrectCount   int      `json:"correctCount"`
	IncorrectCount int      `json:"incorrectCount"`
	LastReviewDate int64    `json:"lastReviewDate"`
	NextReviewDate int64    `json:"nextReviewDate"`
	EaseFactor     float64  `json:"easeFactor"`
	Interval       int      `json:"interval"` // days
	MasteredDate   *int64   `json:"masteredDate,omitempty"`
	CooldownUntil  *int64   `json:"cooldownUntil,omitempty"`
}

// NewProgressItem creates an unreviewed item in the new state.
func NewProgressItem(id string, itemType ItemType, now int64) ProgressItem {
	return ProgressItem{
		ID:             id,
		ItemType:       itemType,
		SrsState:       StateNew,
		LastReviewDate: now,
		NextReviewDate: now,
		EaseFactor:     DefaultEaseFactor,
		Interval:       learningInterval,
	}
}

// RecordReview applies one review outcome at time now and reschedules the item.
//
// Correct answers move new → learning → review → mastered; mastered stays put.
// Incorrect answers move mastered → review → learning; new and learning are
// left in place. The ease factor never drops below MinEaseFactor.
func (it *ProgressItem) RecordReview(isCorrect bool, now int64) {
	it.ReviewCount++
	it.LastReviewDate = now

	if isCorrect {
		it.CorrectCount++
		switch it.SrsState {
		case StateNew:
			it.SrsState = StateLearning
			it.Interval = learningInterval
		case StateLearning:
			it.SrsState = StateReview
			it.Interval = reviewInterval
		case StateReview:
			it.SrsState = StateMastered
			it.Interval = masteredInterval
			mastered := now
			cooldown := now + MasteryCooldownDays*DayMillis
			it.MasteredDate = &mastered
			it.CooldownUntil = &cooldown
		}
		it.EaseFactor = clampEase(it.EaseFactor + easeBonus)
	} else {
		it.IncorrectCount++
		switch it.SrsState {
		case StateMastered:
			it.SrsState = StateReview
			it.Interval = reviewInterval
		case StateReview:
			it.SrsState = StateLearning
			it.Interval = learningInterval
		}
		it.EaseFactor = clampEase(it.EaseFactor - easePenalty)
	}

	it.NextReviewDate = now + int64(it.Interval)*DayMillis
}

// Clone returns a copy of it that shares no pointers with it.
func (it ProgressItem) Clone() ProgressItem {
	it.MasteredDate = cloneMillis(it.MasteredDate)
	it.CooldownUntil = cloneMillis(it.CooldownUntil)
	return it
}

// InCooldown reports whether the post-mastery cooldown is still running at now.
func (it ProgressItem) InCooldown(now int64) bool {
	return it.CooldownUntil != nil && now < *it.CooldownUntil
}

// IsDue reports whether the item is scheduled for review at now.
func (it ProgressItem) IsDue(now int64) bool {
	return it.NextReviewDate <= now
}

func clampEase(e float64) float64 {
	if e < MinEaseFactor {
		return MinEaseFactor
	}
	return e
}

func cloneMillis(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
