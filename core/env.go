package core

import (
	"context"
	"math"
)

// Action is one of the moves a pacman agent can make.
type Action string

const (
	North Action = "North"
	South Action = "South"
	East  Action = "East"
	West  Action = "West"
	Stop  Action = "Stop"
)

// AllActions lists every action in the order environments report them.
var AllActions = []Action{North, South, East, West, Stop}

func (a Action) Hash() string {
	return string(a)
}

// Valid reports whether a is part of the closed action set.
func (a Action) Valid() bool {
	switch a {
	case North, South, East, West, Stop:
		return true
	}
	return false
}

// Vector returns the unit displacement of the action. X grows east, Y grows north.
func (a Action) Vector() (int, int) {
	switch a {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Reverse returns the opposite direction. Stop is its own reverse.
func (a Action) Reverse() Action {
	switch a {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return Stop
}

type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (c Coord) Finite() bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) && !math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}

// Grid is a boolean grid indexed as [x][y].
type Grid [][]bool

func (g Grid) Width() int {
	return len(g)
}

func (g Grid) Height() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Count returns the number of true cells.
func (g Grid) Count() int {
	n := 0
	for _, col := range g {
		for _, v := range col {
			if v {
				n++
			}
		}
	}
	return n
}

func (g Grid) Copy() Grid {
	out := make(Grid, len(g))
	for x, col := range g {
		out[x] = make([]bool, len(col))
		copy(out[x], col)
	}
	return out
}

// Observation is what an agent sees of the game at one tick.
type Observation interface {
	PacmanPosition() Coord
	GhostPositions() []Coord
	Food() Grid
	// Score is the cumulative game score so far.
	Score() float64
}

// GameState is an observation the environment can also be asked about.
type GameState interface {
	Observation
	LegalActions() []Action
	Terminal() bool
	Win() bool
}

type Environment interface {
	Reset() (GameState, error)
	Step(Action, *StepContext) (GameState, error)
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	NewEnvironment(int) Environment
}

// ValidateObservation checks that obs carries every field a learner needs.
func ValidateObservation(obs Observation) error {
	if obs == nil {
		return malformed("nil observation")
	}
	if !obs.PacmanPosition().Finite() {
		return malformed("pacman position is not finite")
	}
	for _, g := range obs.GhostPositions() {
		if !g.Finite() {
			return malformed("ghost position is not finite")
		}
	}
	food := obs.Food()
	if food.Width() == 0 || food.Height() == 0 {
		return malformed("missing food grid")
	}
	for _, col := range food {
		if len(col) != food.Height() {
			return malformed("ragged food grid")
		}
	}
	score := obs.Score()
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return malformed("score is not finite")
	}
	return nil
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	Horizon       int
	Run           int
	StartTimeStep int
	// Evaluation is set for episodes played greedily after training.
	Evaluation bool

	Trace *Trace

	// Outcome of a completed episode.
	FinalScore float64
	Won        bool

	err     error
	timeout bool
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
	}
}

func (e *EpisodeContext) Error(err error) {
	e.err = err
	e.Trace.SetError(err)
}

func (e *EpisodeContext) Timeout() {
	e.timeout = true
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

type StepContext struct {
	Step int
	*EpisodeContext
}
