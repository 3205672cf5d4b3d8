package model

import (
	"errors"
	"fmt"
)

// Validation errors for mutation inputs.
var (
	ErrEmptyItemID     = errors.New("item id is required")
	ErrInvalidItemType = errors.New("invalid item type")
	ErrInvalidSrsState = errors.New("invalid srs state")
	ErrEmptyLevelID    = errors.New("level id is required")
	ErrInvalidSettings = errors.New("invalid settings")
)

// SchemaError reports a persisted or imported document that failed validation.
type SchemaError struct {
	Doc    string // "progress" or "settings"
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s schema: %s: %v", e.Doc, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s schema: %s", e.Doc, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
