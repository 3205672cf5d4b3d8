package model

import "fmt"

// Theme is the UI theme preference.
type Theme string

// Theme constants
const (
	ThemeMinimal Theme = "minimal"
	ThemePlayful Theme = "playful"
)

// Language is the UI language preference.
type Language string

// Language constants
const (
	LanguageLao     Language = "lao"
	LanguageEnglish Language = "english"
)

// Setting bounds
const (
	MinTTSSpeed = 0.5
	MaxTTSSpeed = 2.0
)

// UserSettings holds learner preferences. It is persisted separately from
// progress and does not influence scheduling.
type UserSettings struct {
	Version              string   `json:"version"`
	Theme                Theme    `json:"theme"`
	TTSSpeed             float64  `json:"ttsSpeed"`
	AudioVolume          float64  `json:"audioVolume"`
	Language             Language `json:"language"`
	NotificationsEnabled bool     `json:"notificationsEnabled"`
	LastUpdated          int64    `json:"lastUpdated"`
}

// DefaultSettings returns the settings used for a fresh install.
func DefaultSettings(now int64) UserSettings {
	return UserSettings{
		Version:              SchemaVersion,
		Theme:                ThemeMinimal,
		TTSSpeed:             1.0,
		AudioVolume:          1.0,
		Language:             LanguageEnglish,
		NotificationsEnabled: true,
		LastUpdated:          now,
	}
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Theme                *Theme    `json:"theme,omitempty"`
	TTSSpeed             *float64  `json:"ttsSpeed,omitempty"`
	AudioVolume          *float64  `json:"audioVolume,omitempty"`
	Language             *Language `json:"language,omitempty"`
	NotificationsEnabled *bool     `json:"notificationsEnabled,omitempty"`
}

// Apply validates p and returns s with the patch merged in. s is not modified.
func (s UserSettings) Apply(p SettingsPatch) (UserSettings, error) {
	if p.Theme != nil {
		if *p.Theme != ThemeMinimal && *p.Theme != ThemePlayful {
			return s, fmt.Errorf("%w: theme %q", ErrInvalidSettings, *p.Theme)
		}
		s.Theme = *p.Theme
	}
	if p.TTSSpeed != nil {
		if *p.TTSSpeed < MinTTSSpeed || *p.TTSSpeed > MaxTTSSpeed {
			return s, fmt.Errorf("%w: ttsSpeed %v out of range [%v, %v]", ErrInvalidSettings, *p.TTSSpeed, MinTTSSpeed, MaxTTSSpeed)
		}
		s.TTSSpeed = *p.TTSSpeed
	}
	if p.AudioVolume != nil {
		if *p.AudioVolume < 0 || *p.AudioVolume > 1 {
			return s, fmt.Errorf("%w: audioVolume %v out of range [0, 1]", ErrInvalidSettings, *p.AudioVolume)
		}
		s.AudioVolume = *p.AudioVolume
	}
	if p.Language != nil {
		if *p.Language != LanguageLao && *p.Language != LanguageEnglish {
			return s, fmt.Errorf("%w: language %q", ErrInvalidSettings, *p.Language)
		}
		s.Language = *p.Language
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	return s, nil
}
