package game

import (
	"fmt"
	"io"
	"strings"
)

// BoardView is the render-ready picture of a session: per-cell states plus
// the header values (remaining flags, clock, status).
type BoardView struct {
	GameID         string
	Difficulty     Difficulty
	Timing         TimingMode
	Status         GameStatus
	Counter        int
	RemainingFlags int
	Cells          [][]CellState
}

func (session *Session) View() BoardView {
	return BoardView{
		GameID:         session.id,
		Difficulty:     session.difficulty,
		Timing:         session.clock.mode,
		Status:         session.status,
		Counter:        session.DisplayCounter(),
		RemainingFlags: session.RemainingFlags(),
		Cells:          session.board.States(),
	}
}

// BoardViewOf renders a standalone board, such as one rebuilt from a
// snapshot.
func BoardViewOf(board *Board) BoardView {
	status := Running
	for row := range board.cells {
		for col := range board.cells[row] {
			if board.cells[row][col].isLosingMine {
				status = Lost
			}
		}
	}
	if status != Lost && board.IsCleared() {
		status = Won
	}

	return BoardView{
		Status:         status,
		RemainingFlags: board.RemainingFlags(),
		Cells:          board.States(),
	}
}

func (view BoardView) Rows() int {
	return len(view.Cells)
}

func (view BoardView) Cols() int {
	if len(view.Cells) == 0 {
		return 0
	}
	return len(view.Cells[0])
}

// LowTime reports a challenge countdown in its last seconds.
func (view BoardView) LowTime() bool {
	return view.Timing.IsChallenge() && !view.Status.IsTerminal() && view.Counter <= LowTimeSeconds
}

// Header is the one-line summary shown above the grid.
func (view BoardView) Header() string {
	header := fmt.Sprintf("%03d  %03d", view.RemainingFlags, view.Counter)
	if view.LowTime() {
		header += "!"
	}
	switch view.Status {
	case Won:
		header += "   WIN!"
	case Lost:
		header += "   LOSE :("
	}
	return header
}

// WriteText draws the view as text with column and row indexes.
func (view BoardView) WriteText(w io.Writer) error {
	var out strings.Builder

	out.WriteString(view.Header())
	out.WriteString("\n\n    ")
	for col := 0; col < view.Cols(); col++ {
		fmt.Fprintf(&out, "%d", col%10)
	}
	out.WriteByte('\n')

	for row, states := range view.Cells {
		fmt.Fprintf(&out, "%3d ", row)
		for _, state := range states {
			out.WriteRune(state.Rune())
		}
		out.WriteByte('\n')
	}

	_, err := io.WriteString(w, out.String())
	return err
}
