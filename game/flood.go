package game

import "github.com/gammazero/deque"

type Visitor func(*Cell)

// cascadeEmpty opens the region reachable from an already revealed zero cell.
// A cell is queued only at the moment it is revealed, so the revealed flag is
// the only visited-set needed and every cell is processed at most once.
func (board *Board) cascadeEmpty(origin *Cell, visit Visitor) {
	var pending deque.Deque[*Cell]
	pending.PushBack(origin)

	for pending.Len() > 0 {
		cell := pending.PopFront()

		for _, pos := range board.Neighbors(cell.row, cell.col) {
			neighbor := &board.cells[pos.Row][pos.Col]
			if neighbor.isRevealed || neighbor.isFlagged {
				continue
			}

			neighbor.reveal()
			visit(neighbor)

			if neighbor.numMines == 0 && !neighbor.isMine {
				pending.PushBack(neighbor)
			}
		}
	}
}
