package game

import (
	"fmt"
)

type Position struct {
	Row, Col int
}

func (pos Position) String() string {
	return fmt.Sprintf("(%d, %d)", pos.Row, pos.Col)
}

type Cell struct {
	row, col int
	numMines int

	isMine, isRevealed, isFlagged bool
	isLosingMine                  bool
	isExposed                     bool

	state CellState
}

func (cell *Cell) String() string {
	return fmt.Sprintf("Cell(%v, %v)", cell.row, cell.col)
}

func (cell *Cell) Row() int {
	return cell.row
}

func (cell *Cell) Col() int {
	return cell.col
}

func (cell *Cell) Position() Position {
	return Position{Row: cell.row, Col: cell.col}
}

func (cell *Cell) IsMine() bool {
	return cell.isMine
}

func (cell *Cell) IsRevealed() bool {
	return cell.isRevealed
}

func (cell *Cell) IsFlagged() bool {
	return cell.isFlagged
}

// IsExposed reports whether the end-of-game pass has shown this mine.
func (cell *Cell) IsExposed() bool {
	return cell.isExposed
}

// NumMines is the adjacent mine count. Only meaningful for non-mine cells
// after adjacency has been computed.
func (cell *Cell) NumMines() int {
	return cell.numMines
}

func (cell *Cell) State() CellState {
	return cell.state
}

func (cell *Cell) serialize() string {
	switch {
	case cell.isMine:
		switch {
		case cell.isLosingMine:
			return "*"
		case cell.isFlagged:
			return "F"
		default:
			return "O"
		}
	case cell.isFlagged:
		return "f"
	case cell.isRevealed:
		return "."
	default:
		return "#"
	}
}

func (cell *Cell) deserialize(c rune) bool {
	switch c {
	case '*':
		cell.isMine = true
		cell.isLosingMine = true
		cell.isRevealed = true
		cell.setState(MineLosing)
	case 'F':
		cell.isMine = true
		cell.isFlagged = true
		cell.setState(Flag)
	case 'O':
		cell.isMine = true
		cell.setState(Unrevealed)
	case 'f':
		cell.isFlagged = true
		cell.setState(Flag)
	case '.':
		cell.isRevealed = true
		// NOTE: the number is filled in once adjacency is computed
		cell.setState(Empty)
	case '#':
		cell.setState(Unrevealed)
	default:
		return false
	}

	return true
}

func (cell *Cell) reveal() {
	cell.isRevealed = true

	if cell.isMine {
		cell.isLosingMine = true
		cell.setState(MineLosing)
	} else {
		cell.setState(CellState(cell.numMines))
	}
}

func (cell *Cell) toggleFlagged() {
	cell.isFlagged = !cell.isFlagged

	if cell.isFlagged {
		cell.setState(Flag)
	} else {
		cell.setState(Unrevealed)
	}
}

func (cell *Cell) revealLost() {
	if cell.isFlagged {
		if !cell.isMine {
			cell.setState(FlagWrong)
		} else {
			cell.isExposed = true
		}
	} else if cell.isMine {
		cell.isExposed = true
		if !cell.isLosingMine {
			cell.setState(MineUnrevealed)
		}
	}
}

func (cell *Cell) revealWon() {
	if cell.isMine {
		cell.isExposed = true
		cell.setState(Flag)
	}
}

func (cell *Cell) setState(state CellState) {
	cell.state = state
}
