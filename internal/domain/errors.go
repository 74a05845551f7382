package domain

import "errors"

// Engine error taxonomy. Callers wrap these with context and match them
// with errors.Is.
var (
	// ErrInsufficientData is returned when fewer candles or outcomes are
	// available than a computation requires.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter is returned when a parameter set or trade
	// configuration is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrExternalCollaborator is returned when a candle source, impact
	// estimator, executor or store fails. The tick is skipped.
	ErrExternalCollaborator = errors.New("external collaborator failure")

	// ErrArithmeticDegenerate is returned when a ratio is undefined
	// (zero loss average, zero standard deviation). Callers fall back to
	// a documented safe value.
	ErrArithmeticDegenerate = errors.New("arithmetic degenerate")

	// ErrInvalidTransition is returned for a state machine move that is
	// not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPaused is returned when an automated operation targets a paused trade.
	ErrPaused = errors.New("trade paused")
)
