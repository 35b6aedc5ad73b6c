package policies

import (
	"fmt"
	"sync/atomic"
	"time"

	erand "golang.org/x/exp/rand"

	"github.com/zeu5/pacman-qlearning/core"
)

// RandomAgent picks a legal action uniformly and learns nothing.
type RandomAgent struct {
	rand *erand.Rand
}

var _ core.Agent = &RandomAgent{}

func NewRandomAgent(src erand.Source) *RandomAgent {
	if src == nil {
		src = erand.NewSource(uint64(time.Now().UnixNano()))
	}
	return &RandomAgent{
		rand: erand.New(src),
	}
}

func (r *RandomAgent) Decide(_ core.Observation, legal []core.Action) (core.Action, error) {
	if len(legal) == 0 {
		return "", fmt.Errorf("decide: %w", core.ErrInvalidActionSet)
	}
	return legal[r.rand.Intn(len(legal))], nil
}

func (r *RandomAgent) Finish(_ core.Observation) error { return nil }

func (r *RandomAgent) SetParameters(_, _ float64) {}

func (r *RandomAgent) ResetEpisode() {}

func (r *RandomAgent) Reset() {}

type RandomAgentConstructor struct {
	seed  uint64
	count atomic.Uint64
}

var _ core.AgentConstructor = &RandomAgentConstructor{}

// NewRandomAgentConstructor seeds agents the same way NewQLearnerConstructor does.
func NewRandomAgentConstructor(seed uint64) *RandomAgentConstructor {
	return &RandomAgentConstructor{seed: seed}
}

func (r *RandomAgentConstructor) NewAgent() core.Agent {
	var src erand.Source
	if r.seed != 0 {
		src = erand.NewSource(r.seed + r.count.Add(1) - 1)
	}
	return NewRandomAgent(src)
}
