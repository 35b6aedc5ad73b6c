package pacman

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zeu5/pacman-qlearning/core"
)

var ErrUnknownLayout = errors.New("unknown layout")

// Layout is a parsed board. Walls and Food are indexed [x][y] with y
// counted from the bottom row.
type Layout struct {
	Name        string
	Width       int
	Height      int
	Walls       core.Grid
	Food        core.Grid
	PacmanStart core.Coord
	GhostStarts []core.Coord
}

var layouts = map[string][]string{
	"tinyGrid": {
		"%%%%%",
		"%P .%",
		"%%%%%",
	},
	"smallGrid": {
		"%%%%%%%",
		"%    .%",
		"% %%% %",
		"% %%% %",
		"%.P  G%",
		"%%%%%%%",
	},
	"mediumGrid": {
		"%%%%%%%%",
		"%P     %",
		"% .% . %",
		"%  %   %",
		"% .% . %",
		"%     G%",
		"%%%%%%%%",
	},
}

// LayoutNames lists the built-in layouts.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetLayout(name string) (*Layout, error) {
	lines, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	return ParseLayout(name, lines)
}

// ParseLayout reads a text board: '%' wall, '.' food, 'P' pacman, 'G' ghost.
func ParseLayout(name string, lines []string) (*Layout, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("layout %s: empty", name)
	}
	height := len(lines)
	width := len(lines[0])
	l := &Layout{
		Name:        name,
		Width:       width,
		Height:      height,
		Walls:       newGrid(width, height),
		Food:        newGrid(width, height),
		GhostStarts: make([]core.Coord, 0),
	}
	foundPacman := false
	for row, line := range lines {
		if len(line) != width {
			return nil, fmt.Errorf("layout %s: row %d has width %d, expected %d", name, row, len(line), width)
		}
		y := height - 1 - row
		for x, c := range line {
			switch c {
			case '%':
				l.Walls[x][y] = true
			case '.':
				l.Food[x][y] = true
			case 'P':
				if foundPacman {
					return nil, fmt.Errorf("layout %s: more than one pacman", name)
				}
				foundPacman = true
				l.PacmanStart = core.Coord{X: float64(x), Y: float64(y)}
			case 'G':
				l.GhostStarts = append(l.GhostStarts, core.Coord{X: float64(x), Y: float64(y)})
			case ' ':
			default:
				return nil, fmt.Errorf("layout %s: unexpected %q at row %d", name, c, row)
			}
		}
	}
	if !foundPacman {
		return nil, fmt.Errorf("layout %s: no pacman", name)
	}
	if l.Food.Count() == 0 {
		return nil, fmt.Errorf("layout %s: no food", name)
	}
	return l, nil
}

func newGrid(width, height int) core.Grid {
	g := make(core.Grid, width)
	for x := range g {
		g[x] = make([]bool, height)
	}
	return g
}

func (l *Layout) isWall(x, y int) bool {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return true
	}
	return l.Walls[x][y]
}
