package game

import (
	"errors"
	"fmt"
)

type CellState int
type GameStatus int

// Render states. Unrevealed..Number8 line up with the adjacent mine count, so
// CellState(n) is the state of a revealed cell with n neighboring mines.
const (
	Unrevealed CellState = iota - 1
	Empty
	Number1
	Number2
	Number3
	Number4
	Number5
	Number6
	Number7
	Number8
	Flag
	FlagWrong
	MineUnrevealed
	MineLosing
)

var CellStates = []CellState{
	Unrevealed,
	Empty,
	Number1,
	Number2,
	Number3,
	Number4,
	Number5,
	Number6,
	Number7,
	Number8,
	Flag,
	FlagWrong,
	MineUnrevealed,
	MineLosing,
}

// IsNumber reports whether the state shows a revealed safe cell.
func (state CellState) IsNumber() bool {
	return state >= Empty && state <= Number8
}

// Rune is the single-character rendering used by the terminal adapter.
func (state CellState) Rune() rune {
	switch {
	case state == Empty:
		return '.'
	case state.IsNumber():
		return rune('0' + int(state))
	}

	switch state {
	case Flag:
		return 'F'
	case FlagWrong:
		return 'x'
	case MineUnrevealed:
		return '*'
	case MineLosing:
		return '@'
	default:
		return '#'
	}
}

const (
	NotStarted GameStatus = iota
	Running
	Won
	Lost
)

func (status GameStatus) String() string {
	switch status {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("GameStatus(%d)", int(status))
	}
}

// IsTerminal reports whether the status only changes on reset.
func (status GameStatus) IsTerminal() bool {
	return status == Won || status == Lost
}

var (
	ErrInvalidConfiguration = errors.New("invalid board configuration")
	ErrMinesPlaced          = errors.New("mines already placed")
	ErrOutOfBounds          = errors.New("cell out of bounds")
	ErrInvalidChallenge     = errors.New("invalid challenge duration")
	ErrUnknownDifficulty    = errors.New("unknown difficulty")
)
