package types

import (
	"errors"
	"fmt"
)

// Capture rejection and degradation errors. Rejections abort the capture
// cycle and are surfaced to the notification collaborator; degradations are
// logged where they are absorbed and the pipeline continues.

// SizeExceededError rejects a payload over the absolute per-category ceiling.
type SizeExceededError struct {
	Kind  ContentKind
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("%s payload of %d bytes exceeds the %d byte limit", e.Kind, e.Size, e.Limit)
}

// TypeDisabledError rejects a payload whose content type is disabled in the
// configuration.
type TypeDisabledError struct {
	Kind ContentKind
}

func (e *TypeDisabledError) Error() string {
	return fmt.Sprintf("capture of %s content is disabled", e.Kind)
}

// AppExcludedError rejects a capture from an application on the exclusion
// list.
type AppExcludedError struct {
	AppName string
}

func (e *AppExcludedError) Error() string {
	return fmt.Sprintf("application %q is excluded from capture", e.AppName)
}

// SensitiveContentError rejects text captured while a known credential tool
// is the foreground application.
type SensitiveContentError struct {
	AppName string
}

func (e *SensitiveContentError) Error() string {
	return fmt.Sprintf("text from %q looks like sensitive content", e.AppName)
}

var (
	// ErrDiskWriteFailed marks a failed spillover write; the item falls
	// back to memory residency.
	ErrDiskWriteFailed = errors.New("spillover write failed")

	// ErrDiskReadFailed marks an unreadable backing file; the payload is
	// unavailable but the item stays in the list.
	ErrDiskReadFailed = errors.New("backing file read failed")

	// ErrPersistenceSaveFailed marks a repository save failure; the
	// in-memory list remains authoritative for the session.
	ErrPersistenceSaveFailed = errors.New("persistence save failed")

	// ErrNoContent means the clipboard offered nothing usable this cycle.
	ErrNoContent = errors.New("no usable clipboard content")
)

// IsRejection reports whether err is a policy rejection that should be
// surfaced to the user rather than just logged.
func IsRejection(err error) bool {
	var se *SizeExceededError
	var td *TypeDisabledError
	var ae *AppExcludedError
	var sc *SensitiveContentError
	return errors.As(err, &se) || errors.As(err, &td) || errors.As(err, &ae) || errors.As(err, &sc)
}
