package model

// LevelProgress tracks unlock state and per-kind counts for one content level.
type LevelProgress struct {
	LevelID                string `json:"level_id"`
	IsUnlocked             bool   `json:"isUnlocked"`
	StartDate              *int64 `json:"startDate,omitempty"`
	CompletionDate         *int64 `json:"completionDate,omitempty"`
	MasteredCharacterCount int    `json:"masteredCharacterCount"`
	TotalCharacterCount    int    `json:"totalCharacterCount"`
	MasteredWordCount      int    `json:"masteredWordCount"`
	TotalWordCount         int    `json:"totalWordCount"`
	MasteredPhraseCount    int    `json:"masteredPhraseCount"`
	TotalPhraseCount       int    `json:"totalPhraseCount"`
}

// NewLevelProgress returns a locked level with zero counts.
func NewLevelProgress(levelID string) LevelProgress {
	return LevelProgress{LevelID: levelID}
}

// Unlock marks the level unlocked and stamps its start date. Calling it again
// moves the start date forward.
func (l *LevelProgress) Unlock(now int64) {
	l.IsUnlocked = true
	start := now
	l.StartDate = &start
}

// Clone returns a copy of l that shares no pointers with it.
func (l LevelProgress) Clone() LevelProgress {
	l.StartDate = cloneMillis(l.StartDate)
	l.CompletionDate = cloneMillis(l.CompletionDate)
	return l
}
