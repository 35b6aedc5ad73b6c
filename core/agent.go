package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidActionSet     = errors.New("empty legal action set")
	ErrIllegalSessionState  = errors.New("illegal session state")
	ErrMalformedObservation = errors.New("malformed observation")
)

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedObservation, reason)
}

// Agent plays one game at a time and learns from the score it observes.
type Agent interface {
	// Decide returns the action to take given the observation and the legal actions.
	Decide(Observation, []Action) (Action, error)
	// Finish is called with the terminal observation once the episode is over.
	Finish(Observation) error
	SetParameters(alpha, epsilon float64)
	// ResetEpisode forgets the previous decision so the next Decide starts a new episode.
	ResetEpisode()
	// Reset forgets everything learned so far.
	Reset()
}

type AgentConstructor interface {
	NewAgent() Agent
}
