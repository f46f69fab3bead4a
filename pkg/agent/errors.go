package agent

import "errors"

var (
	// ErrMaxIterations reports that the model was still requesting
	// tools when the iteration cap was reached.
	ErrMaxIterations = errors.New("agent: max iterations exceeded without a final answer")

	// ErrTurnTimeout reports that the overall turn deadline expired
	// before the model produced a final answer.
	ErrTurnTimeout = errors.New("agent: turn timed out")
)
