package policies

import (
	"encoding/json"
	"fmt"

	"github.com/zeu5/pacman-qlearning/core"
	"github.com/zeu5/pacman-qlearning/util"
)

// StateSnapshot is an immutable copy of the parts of an observation the
// learner keys its table on. Ghost order is significant.
type StateSnapshot struct {
	position core.Coord
	ghosts   []core.Coord
	food     core.Grid

	// key is the canonical encoding of the three fields, hash its digest.
	key  string
	hash string
}

type snapshotEncoding struct {
	Position core.Coord   `json:"position"`
	Ghosts   []core.Coord `json:"ghosts"`
	Food     core.Grid    `json:"food"`
}

// NewStateSnapshot copies its arguments, later changes to them are not seen.
// Non-finite coordinates fail with core.ErrMalformedObservation.
func NewStateSnapshot(position core.Coord, ghosts []core.Coord, food core.Grid) (StateSnapshot, error) {
	if !position.Finite() {
		return StateSnapshot{}, fmt.Errorf("%w: pacman position is not finite", core.ErrMalformedObservation)
	}
	s := StateSnapshot{
		position: normalize(position),
		ghosts:   make([]core.Coord, len(ghosts)),
		food:     food.Copy(),
	}
	for i, g := range ghosts {
		if !g.Finite() {
			return StateSnapshot{}, fmt.Errorf("%w: ghost position is not finite", core.ErrMalformedObservation)
		}
		s.ghosts[i] = normalize(g)
	}
	bs, err := json.Marshal(snapshotEncoding{
		Position: s.position,
		Ghosts:   s.ghosts,
		Food:     s.food,
	})
	if err != nil {
		return StateSnapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	s.key = string(bs)
	s.hash = util.StringHash(s.key)
	return s, nil
}

// FromObservation captures obs, failing with core.ErrMalformedObservation
// when a field is missing.
func FromObservation(obs core.Observation) (StateSnapshot, error) {
	if err := core.ValidateObservation(obs); err != nil {
		return StateSnapshot{}, err
	}
	return NewStateSnapshot(obs.PacmanPosition(), obs.GhostPositions(), obs.Food())
}

// -0 and 0 must encode the same way.
func normalize(c core.Coord) core.Coord {
	return core.Coord{X: c.X + 0, Y: c.Y + 0}
}

func (s StateSnapshot) Position() core.Coord {
	return s.position
}

func (s StateSnapshot) GhostPositions() []core.Coord {
	out := make([]core.Coord, len(s.ghosts))
	copy(out, s.ghosts)
	return out
}

func (s StateSnapshot) Food() core.Grid {
	return s.food.Copy()
}

func (s StateSnapshot) Hash() string {
	return s.hash
}

func (s StateSnapshot) Equal(other StateSnapshot) bool {
	if s.position != other.position || len(s.ghosts) != len(other.ghosts) || len(s.food) != len(other.food) {
		return false
	}
	for i := range s.ghosts {
		if s.ghosts[i] != other.ghosts[i] {
			return false
		}
	}
	for x := range s.food {
		if len(s.food[x]) != len(other.food[x]) {
			return false
		}
		for y := range s.food[x] {
			if s.food[x][y] != other.food[x][y] {
				return false
			}
		}
	}
	return true
}

// StateActionKey pairs a snapshot with one candidate action.
type StateActionKey struct {
	State  StateSnapshot
	Action core.Action
}

func NewStateActionKey(state StateSnapshot, action core.Action) StateActionKey {
	return StateActionKey{State: state, Action: action}
}

func (k StateActionKey) Hash() string {
	return util.StringHash(k.State.hash + "/" + k.Action.Hash())
}

func (k StateActionKey) Equal(other StateActionKey) bool {
	return k.Action == other.Action && k.State.Equal(other.State)
}
