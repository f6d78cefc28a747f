package random

import (
	"math/rand"

	"github.com/they4kman/gosweep/game"
)

// Director clicks hidden cells in a shuffled order.
type Director struct {
	// Source for the click order; nil seeds from the session's board seed
	Rand *rand.Rand

	session *game.Session
	order   []game.Position
}

func (director *Director) Init(session *game.Session) {
	director.session = session

	board := session.Board()
	director.order = make([]game.Position, board.NumCells())
	for i := range director.order {
		director.order[i] = board.PositionOf(i)
	}

	rng := director.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(session.Seed()))
	}
	rng.Shuffle(len(director.order), func(i, j int) {
		director.order[i], director.order[j] = director.order[j], director.order[i]
	})
}

func (director *Director) Act() (game.CellAction, bool) {
	board := director.session.Board()

	for len(director.order) > 0 {
		pos := director.order[0]
		director.order = director.order[1:]

		cell := board.CellAt(pos.Row, pos.Col)
		if !cell.IsRevealed() && !cell.IsFlagged() {
			return game.CellAction{Position: pos, Action: game.Click}, true
		}
	}

	return game.CellAction{}, false
}
