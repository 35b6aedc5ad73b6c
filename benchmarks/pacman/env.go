package pacman

import (
	"errors"
	"fmt"
	"math"
	"time"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/zeu5/pacman-qlearning/core"
)

const (
	TimePenalty = 1.0
	FoodReward  = 10.0
	WinReward   = 500.0
	LosePenalty = 500.0
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrIllegalAction = errors.New("illegal action")
	ErrNotStarted    = errors.New("game not started")
)

type GameState struct {
	layout *Layout

	pacman core.Coord
	ghosts []core.Coord
	food   core.Grid
	score  float64
	win    bool
	lose   bool
}

var _ core.GameState = &GameState{}

func (s *GameState) Copy() *GameState {
	ghosts := make([]core.Coord, len(s.ghosts))
	copy(ghosts, s.ghosts)
	return &GameState{
		layout: s.layout,
		pacman: s.pacman,
		ghosts: ghosts,
		food:   s.food.Copy(),
		score:  s.score,
		win:    s.win,
		lose:   s.lose,
	}
}

func (s *GameState) PacmanPosition() core.Coord {
	return s.pacman
}

func (s *GameState) GhostPositions() []core.Coord {
	out := make([]core.Coord, len(s.ghosts))
	copy(out, s.ghosts)
	return out
}

func (s *GameState) Food() core.Grid {
	return s.food.Copy()
}

func (s *GameState) Score() float64 {
	return s.score
}

func (s *GameState) Terminal() bool {
	return s.win || s.lose
}

func (s *GameState) Win() bool {
	return s.win
}

// LegalActions lists the moves that do not walk into a wall, Stop last.
func (s *GameState) LegalActions() []core.Action {
	if s.Terminal() {
		return []core.Action{}
	}
	return s.layout.moves(s.pacman, true)
}

func (l *Layout) moves(c core.Coord, withStop bool) []core.Action {
	out := make([]core.Action, 0, len(core.AllActions))
	for _, a := range core.AllActions {
		if a == core.Stop {
			if withStop {
				out = append(out, a)
			}
			continue
		}
		dx, dy := a.Vector()
		if !l.isWall(int(c.X)+dx, int(c.Y)+dy) {
			out = append(out, a)
		}
	}
	return out
}

func move(c core.Coord, a core.Action) core.Coord {
	dx, dy := a.Vector()
	return core.Coord{X: c.X + float64(dx), Y: c.Y + float64(dy)}
}

func manhattan(a, b core.Coord) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// Game is a single pacman game against ghosts that drift towards pacman.
type Game struct {
	layout *Layout
	// weight of a ghost move that closes in on pacman, other moves weigh 1
	chaseBias float64
	rand      erand.Source

	state *GameState
}

var _ core.Environment = &Game{}

func NewGame(layout *Layout, chaseBias float64, src erand.Source) *Game {
	if src == nil {
		src = erand.NewSource(uint64(time.Now().UnixNano()))
	}
	if chaseBias < 0 {
		chaseBias = 0
	}
	return &Game{
		layout:    layout,
		chaseBias: chaseBias,
		rand:      src,
	}
}

func (g *Game) Reset() (core.GameState, error) {
	ghosts := make([]core.Coord, len(g.layout.GhostStarts))
	copy(ghosts, g.layout.GhostStarts)
	g.state = &GameState{
		layout: g.layout,
		pacman: g.layout.PacmanStart,
		ghosts: ghosts,
		food:   g.layout.Food.Copy(),
	}
	return g.state.Copy(), nil
}

func (g *Game) Step(action core.Action, _ *core.StepContext) (core.GameState, error) {
	if g.state == nil {
		return nil, ErrNotStarted
	}
	if g.state.Terminal() {
		return nil, ErrGameOver
	}
	if !isLegal(action, g.state.LegalActions()) {
		return nil, fmt.Errorf("%w: %s at (%v, %v)", ErrIllegalAction, action, g.state.pacman.X, g.state.pacman.Y)
	}

	next := g.state.Copy()
	next.pacman = move(next.pacman, action)
	next.score -= TimePenalty

	x, y := int(next.pacman.X), int(next.pacman.Y)
	if next.food[x][y] {
		next.food[x][y] = false
		next.score += FoodReward
		if next.food.Count() == 0 {
			next.score += WinReward
			next.win = true
			g.state = next
			return next.Copy(), nil
		}
	}

	if !g.checkCollision(next) {
		for i := range next.ghosts {
			next.ghosts[i] = g.moveGhost(next.ghosts[i], next.pacman)
		}
		g.checkCollision(next)
	}

	g.state = next
	return next.Copy(), nil
}

func (g *Game) checkCollision(s *GameState) bool {
	for _, ghost := range s.ghosts {
		if ghost == s.pacman {
			s.score -= LosePenalty
			s.lose = true
			return true
		}
	}
	return false
}

// moveGhost samples one of the ghost's open directions.
func (g *Game) moveGhost(ghost, pacman core.Coord) core.Coord {
	options := g.layout.moves(ghost, false)
	if len(options) == 0 {
		return ghost
	}
	weights := make([]float64, len(options))
	current := manhattan(ghost, pacman)
	for i, a := range options {
		if manhattan(move(ghost, a), pacman) < current {
			weights[i] = g.chaseBias
		} else {
			weights[i] = 1
		}
	}
	i, ok := sampleuv.NewWeighted(weights, g.rand).Take()
	if !ok {
		return ghost
	}
	return move(ghost, options[i])
}

func isLegal(action core.Action, legal []core.Action) bool {
	for _, a := range legal {
		if a == action {
			return true
		}
	}
	return false
}

type GameConstructor struct {
	layout    *Layout
	chaseBias float64
	seed      uint64
}

var _ core.EnvironmentConstructor = &GameConstructor{}

// NewGameConstructor seeds instance i with seed+i, or from the clock when seed is 0.
func NewGameConstructor(layout *Layout, chaseBias float64, seed uint64) *GameConstructor {
	return &GameConstructor{
		layout:    layout,
		chaseBias: chaseBias,
		seed:      seed,
	}
}

func (c *GameConstructor) NewEnvironment(instance int) core.Environment {
	var src erand.Source
	if c.seed != 0 {
		src = erand.NewSource(c.seed + uint64(instance))
	}
	return NewGame(c.layout, c.chaseBias, src)
}
