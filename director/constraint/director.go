package constraint

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"

	"github.com/they4kman/gosweep/director/random"
	"github.com/they4kman/gosweep/game"
	"github.com/they4kman/gosweep/util/collections"
)

// Director plays from what the revealed numbers prove, guessing the least
// likely mine only when nothing is certain.
type Director struct {
	session  *game.Session
	fallback *random.Director

	// Actions proven by the last deliberate pass, still to be played
	pending deque.Deque[game.CellAction]
}

// Observation states that exactly numMines of cells are mines.
type Observation struct {
	origin   *game.Position
	numMines int
	cells    collections.Set[game.Position]
}

func (observation Observation) String() string {
	cells := sortedPositions(observation.cells)
	cellsRepr := make([]string, len(cells))
	for i, pos := range cells {
		cellsRepr[i] = pos.String()
	}

	originRepr := "?"
	if observation.origin != nil {
		originRepr = observation.origin.String()
	}

	return fmt.Sprintf("Obs[%8s, %d ε %s]", originRepr, observation.numMines, strings.Join(cellsRepr, ", "))
}

func (observation Observation) MineProbability() float64 {
	return float64(observation.numMines) / float64(len(observation.cells))
}

func (director *Director) Init(session *game.Session) {
	director.session = session
	director.fallback = &random.Director{}
	director.fallback.Init(session)
	director.pending.Clear()
}

func (director *Director) Act() (game.CellAction, bool) {
	for director.pending.Len() > 0 {
		action := director.pending.PopFront()
		if director.stillValid(action) {
			return action, true
		}
	}

	observations := director.observe()
	director.actDeliberate(observations)
	if director.pending.Len() > 0 {
		return director.pending.PopFront(), true
	}

	if action, ok := director.actLowestProbability(observations); ok {
		return action, true
	}
	return director.fallback.Act()
}

func (director *Director) stillValid(action game.CellAction) bool {
	cell := director.session.Board().CellAt(action.Row, action.Col)
	return cell != nil && !cell.IsRevealed() && !cell.IsFlagged()
}

// observe builds one observation per revealed number bordering hidden cells,
// then derives more from observations nested inside one another.
func (director *Director) observe() []*Observation {
	board := director.session.Board()

	var observations []*Observation
	for row := 0; row < board.Rows(); row++ {
		for col := 0; col < board.Cols(); col++ {
			cell := board.CellAt(row, col)
			if !cell.IsRevealed() || cell.IsMine() || cell.NumMines() == 0 {
				continue
			}

			origin := cell.Position()
			observation := &Observation{
				origin:   &origin,
				numMines: cell.NumMines(),
				cells:    make(collections.Set[game.Position]),
			}
			for _, pos := range board.Neighbors(row, col) {
				neighbor := board.CellAt(pos.Row, pos.Col)
				if neighbor.IsRevealed() {
					continue
				}
				if neighbor.IsFlagged() {
					observation.numMines--
				} else {
					observation.cells.Add(pos)
				}
			}

			if observation.cells.Len() > 0 {
				observations = append(observations, observation)
			}
		}
	}

	return append(observations, simplifyObservations(observations)...)
}

// simplifyObservations splits every observation containing another: the
// cells outside the inner one hold the difference in mines.
func simplifyObservations(observations []*Observation) []*Observation {
	var derived []*Observation
	for _, inner := range observations {
		for _, outer := range observations {
			if inner == outer || inner.cells.Len() >= outer.cells.Len() {
				continue
			}
			if outer.cells.Intersection(inner.cells).Len() != inner.cells.Len() {
				continue
			}

			split := &Observation{
				numMines: outer.numMines - inner.numMines,
				cells:    outer.cells.Difference(inner.cells),
			}
			if split.numMines >= 0 && split.numMines <= split.cells.Len() {
				derived = append(derived, split)
			}
		}
	}
	return derived
}

func (director *Director) actDeliberate(observations []*Observation) {
	queued := make(collections.Set[game.Position])

	for _, observation := range observations {
		var action game.Action
		switch {
		case observation.numMines == observation.cells.Len():
			action = game.RightClick
		case observation.numMines == 0:
			action = game.Click
		default:
			continue
		}

		for _, pos := range sortedPositions(observation.cells) {
			if queued.Contains(pos) {
				continue
			}
			queued.Add(pos)
			director.pending.PushBack(game.CellAction{Position: pos, Action: action})
		}

		logrus.WithFields(logrus.Fields{
			"observation": observation.String(),
			"action":      action.String(),
		}).Debug("deliberate move")
	}
}

func (director *Director) actLowestProbability(observations []*Observation) (game.CellAction, bool) {
	lowestProbability := math.Inf(1)
	cellProbabilities := make(map[game.Position]float64)

	for _, observation := range observations {
		probability := observation.MineProbability()
		for pos := range observation.cells {
			if past, ok := cellProbabilities[pos]; !ok || probability < past {
				cellProbabilities[pos] = probability
			}
			lowestProbability = math.Min(lowestProbability, probability)
		}
	}

	candidates := make(collections.Set[game.Position])
	for pos, probability := range cellProbabilities {
		if probability <= lowestProbability {
			candidates.Add(pos)
		}
	}
	if candidates.Len() == 0 {
		return game.CellAction{}, false
	}

	return game.CellAction{Position: sortedPositions(candidates)[0], Action: game.Click}, true
}

func sortedPositions(set collections.Set[game.Position]) []game.Position {
	positions := make([]game.Position, 0, set.Len())
	for pos := range set {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Row != positions[j].Row {
			return positions[i].Row < positions[j].Row
		}
		return positions[i].Col < positions[j].Col
	})
	return positions
}
