package persist

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSave matches every structural decode failure.
	ErrMalformedSave = errors.New("malformed save")

	// ErrNoSave is returned by Gateway.Load when nothing has been saved.
	ErrNoSave = errors.New("persist: no save")
)

// MalformedSaveError reports which part of a snapshot failed validation.
type MalformedSaveError struct {
	Field  string
	Reason string
	Err    error
}

func (e *MalformedSaveError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("persist: malformed save: %s", e.Reason)
	}
	return fmt.Sprintf("persist: malformed save: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedSave.
func (e *MalformedSaveError) Is(target error) bool {
	return target == ErrMalformedSave
}

func (e *MalformedSaveError) Unwrap() error {
	return e.Err
}

func malformed(field, reason string, err error) error {
	return &MalformedSaveError{Field: field, Reason: reason, Err: err}
}
