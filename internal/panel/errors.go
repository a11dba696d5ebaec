package panel

import "errors"

var (
	ErrNoRepairOrder      = errors.New("no repair order available")
	ErrIllegalTransition  = errors.New("illegal transition")
	ErrInvalidInterval    = errors.New("interval out of range")
	ErrDateOutsideWindow  = errors.New("date is not in the current window")
	ErrUnknownService     = errors.New("unknown service")
	ErrInvalidType        = errors.New("invalid appointment type")
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// SubmissionError is a failed booking. Message is shown to the user as is.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }
