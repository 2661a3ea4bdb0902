package types

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited     = errors.New("model rate limited")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrMissingData     = errors.New("missing upstream data")
	ErrNotFound        = errors.New("highlight not found")
	ErrPhase           = errors.New("highlight is not ready for this stage")
	ErrVersionConflict = errors.New("highlight was modified concurrently")
)

// MalformedOutputError keeps the raw model response for diagnosis.
type MalformedOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %s", e.Reason)
}

func (e *MalformedOutputError) Unwrap() error { return ErrMalformedOutput }

// Failure is the structured result returned to callers of a pipeline stage.
type Failure struct {
	Stage  string
	ClipID string
	Index  string
	Topic  string
	Err    error
}

func (f *Failure) Error() string {
	if f.Topic != "" {
		return fmt.Sprintf("%s %s/%s (topic %q): %v", f.Stage, f.ClipID, f.Index, f.Topic, f.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", f.Stage, f.ClipID, f.Index, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
