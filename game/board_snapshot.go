package game

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// BoardSnapshot is the YAML record of a finished board: one line per row,
// one character per cell.
//
//	*  detonated mine     F  flagged mine     O  hidden mine
//	f  flag on safe cell  .  revealed         #  hidden
type BoardSnapshot struct {
	Seed            int64  `yaml:"seed"`
	Difficulty      string `yaml:"difficulty,omitempty"`
	SerializedBoard string `yaml:"board"`
}

func (snapshot *BoardSnapshot) Serialize() (string, error) {
	out, err := yaml.Marshal(snapshot)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func (board *Board) snapshot(seed int64) *BoardSnapshot {
	var rows strings.Builder
	for row := range board.cells {
		if row > 0 {
			rows.WriteByte('\n')
		}
		for col := range board.cells[row] {
			rows.WriteString(board.cells[row][col].serialize())
		}
	}

	return &BoardSnapshot{
		Seed:            seed,
		SerializedBoard: rows.String(),
	}
}

// Snapshot captures the current board of the session.
func (session *Session) Snapshot() *BoardSnapshot {
	snapshot := session.board.snapshot(session.boardSeed)
	snapshot.Difficulty = session.difficulty.String()
	return snapshot
}

// Board rebuilds the board a snapshot describes, with adjacency computed and
// end-of-game annotations applied. It is meant for inspection and rendering.
func (snapshot *BoardSnapshot) Board() (*Board, error) {
	rows := strings.Split(strings.TrimRight(snapshot.SerializedBoard, "\n"), "\n")
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrInvalidConfiguration)
	}

	numMines := strings.Count(snapshot.SerializedBoard, "*") +
		strings.Count(snapshot.SerializedBoard, "F") +
		strings.Count(snapshot.SerializedBoard, "O")

	board, err := NewBoard(len(rows), len(rows[0]), numMines)
	if err != nil {
		return nil, err
	}

	lost := false
	for row, line := range rows {
		if len(line) != board.cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidConfiguration, row, len(line), board.cols)
		}

		for col, c := range line {
			cell := &board.cells[row][col]
			if !cell.deserialize(c) {
				return nil, fmt.Errorf("%w: unknown cell %q at (%d, %d)", ErrInvalidConfiguration, c, row, col)
			}
			if cell.isFlagged {
				board.numFlags++
			}
			lost = lost || cell.isLosingMine
		}
	}

	board.minesPlaced = true
	board.ComputeAdjacency()

	for row := range board.cells {
		for col := range board.cells[row] {
			cell := &board.cells[row][col]
			if cell.isRevealed && !cell.isMine {
				cell.setState(CellState(cell.numMines))
			}
		}
	}

	switch {
	case lost:
		board.RevealAllMines()
	case board.IsCleared():
		board.FlagAllMines()
	}

	return board, nil
}

func LoadSnapshot(in string) (*BoardSnapshot, error) {
	var snapshot BoardSnapshot
	if err := yaml.Unmarshal([]byte(in), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
