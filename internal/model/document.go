package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchemaVersion is the document version this build reads and writes. A stored
// document with any other version is rejected as a whole.
const SchemaVersion = "1.0.0"

// Storage keys
const (
	ProgressKey = "lao_progress_v1"
	SettingsKey = "lao_settings_v1"
)

// ProgressData is the single persisted progress document.
type ProgressData struct {
	Version     string          `json:"version"`
	LastUpdated int64           `json:"lastUpdated"`
	Items       []ProgressItem  `json:"items"`
	Levels      []LevelProgress `json:"levels"`
	Stats       ProgressStats   `json:"stats"`
}

// DefaultProgress returns an empty document stamped at now.
func DefaultProgress(now int64) ProgressData {
	return ProgressData{
		Version:     SchemaVersion,
		LastUpdated: now,
		Items:       []ProgressItem{},
		Levels:      []LevelProgress{},
		Stats:       DefaultStats(now),
	}
}

// Clone returns a deep copy of d.
func (d ProgressData) Clone() ProgressData {
	out := d
	out.Items = make([]ProgressItem, len(d.Items))
	for i, it := range d.Items {
		out.Items[i] = it.Clone()
	}
	out.Levels = make([]LevelProgress, len(d.Levels))
	for i, l := range d.Levels {
		out.Levels[i] = l.Clone()
	}
	return out
}

// FindItem returns the index of the item with id, or -1.
func (d ProgressData) FindItem(id string) int {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// FindLevel returns the index of the level with id, or -1.
func (d ProgressData) FindLevel(id string) int {
	for i := range d.Levels {
		if d.Levels[i].LevelID == id {
			return i
		}
	}
	return -1
}

// ParseProgress decodes and validates a progress document. The top level must
// be an object carrying the exact SchemaVersion, array-valued items and levels,
// and an object-valued stats.
func ParseProgress(raw []byte) (*ProgressData, error) {
	fields, err := decodeObject("progress", raw)
	if err != nil {
		return nil, err
	}
	if err := checkVersion("progress", fields); err != nil {
		return nil, err
	}
	if !isKind(fields["items"], '[') {
		return nil, &SchemaError{Doc: "progress", Reason: "items must be an array"}
	}
	if !isKind(fields["levels"], '[') {
		return nil, &SchemaError{Doc: "progress", Reason: "levels must be an array"}
	}
	if !isKind(fields["stats"], '{') {
		return nil, &SchemaError{Doc: "progress", Reason: "stats must be an object"}
	}

	var data ProgressData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &SchemaError{Doc: "progress", Reason: "decode", Err: err}
	}
	return &data, nil
}

// ParseSettings decodes and validates a settings document.
func ParseSettings(raw []byte) (*UserSettings, error) {
	fields, err := decodeObject("settings", raw)
	if err != nil {
		return nil, err
	}
	if err := checkVersion("settings", fields); err != nil {
		return nil, err
	}
	var s UserSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &SchemaError{Doc: "settings", Reason: "decode", Err: err}
	}
	return &s, nil
}

func decodeObject(doc string, raw []byte) (map[string]json.RawMessage, error) {
	if !isKind(raw, '{') {
		if !json.Valid(raw) {
			return nil, &SchemaError{Doc: doc, Reason: "invalid JSON"}
		}
		return nil, &SchemaError{Doc: doc, Reason: "document must be an object"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &SchemaError{Doc: doc, Reason: "invalid JSON", Err: err}
	}
	return fields, nil
}

func checkVersion(doc string, fields map[string]json.RawMessage) error {
	var version string
	if v, ok := fields["version"]; ok {
		// A non-string version simply fails the equality check below.
		_ = json.Unmarshal(v, &version)
	}
	if version != SchemaVersion {
		return &SchemaError{
			Doc:    doc,
			Reason: fmt.Sprintf("invalid version: expected %s, got %q", SchemaVersion, version),
		}
	}
	return nil
}

// isKind reports whether the JSON value in raw starts with the given delimiter.
func isKind(raw []byte, delim byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == delim
}
