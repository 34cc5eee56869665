package service

import (
	"errors"
	"fmt"
)

// AnalysisFailedMessage is the only failure text shown to users.
const AnalysisFailedMessage = "Analysis Failed. Ensure you are uploading a text-based financial statement."

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyInput        = errors.New("empty input")
	ErrOCRDisabled       = errors.New("ocr is disabled")
	ErrBusy              = errors.New("an analysis is already running")
	ErrInvalidIndustry   = errors.New("invalid industry")
	ErrInvalidLanguage   = errors.New("invalid language")
	ErrNotFound          = errors.New("not found")
)

// ParseError reports a file that has a supported extension but could not be
// read (corrupt, truncated or password protected).
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError is returned by the remote scoring strategy on a non-2xx reply.
type NetworkError struct {
	Status  int
	Message string
}

func (e *NetworkError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis backend returned status %d", e.Status)
	}
	return fmt.Sprintf("analysis backend returned status %d: %s", e.Status, e.Message)
}

// IsAnalysisFailure reports whether err belongs to the extraction/scoring
// family that is surfaced to the user as AnalysisFailedMessage.
func IsAnalysisFailure(err error) bool {
	var pe *ParseError
	var ne *NetworkError
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrOCRDisabled) ||
		errors.As(err, &pe) ||
		errors.As(err, &ne)
}
