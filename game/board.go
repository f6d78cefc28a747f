package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/they4kman/gosweep/util/collections"
)

type Board struct {
	rows, cols int // in number of cells
	numMines   int
	cells      [][]Cell

	numFlags    int
	minesPlaced bool
}

// RevealOutcome reports what a single reveal request did to the board.
type RevealOutcome struct {
	// Cells newly revealed by this request, in the order they were opened
	Revealed []Position
	// Whether one of the revealed cells was a mine
	Detonated bool
}

func (outcome *RevealOutcome) merge(other RevealOutcome) {
	outcome.Revealed = append(outcome.Revealed, other.Revealed...)
	outcome.Detonated = outcome.Detonated || other.Detonated
}

// NewBoard builds an empty board: every cell hidden, unflagged and mine-free.
// Mines are placed later by PlaceMinesAvoiding.
func NewBoard(rows, cols, numMines int) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidConfiguration, rows, cols)
	}
	if numMines <= 0 || numMines >= rows*cols {
		return nil, fmt.Errorf("%w: %d mines on a %dx%d board", ErrInvalidConfiguration, numMines, rows, cols)
	}

	board := &Board{
		rows:     rows,
		cols:     cols,
		numMines: numMines,
		cells:    make([][]Cell, rows),
	}

	for row := 0; row < rows; row++ {
		board.cells[row] = make([]Cell, cols)

		for col := 0; col < cols; col++ {
			cell := &board.cells[row][col]
			cell.row, cell.col = row, col
			cell.state = Unrevealed
		}
	}

	return board, nil
}

func (board *Board) Rows() int {
	return board.rows
}

func (board *Board) Cols() int {
	return board.cols
}

func (board *Board) MineCount() int {
	return board.numMines
}

func (board *Board) NumCells() int {
	return board.rows * board.cols
}

func (board *Board) MinesPlaced() bool {
	return board.minesPlaced
}

func (board *Board) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < board.rows && col < board.cols
}

func (board *Board) CellAt(row, col int) *Cell {
	if board.InBounds(row, col) {
		return &board.cells[row][col]
	}
	return nil
}

// Index maps a position to its linear index, row-major.
func (board *Board) Index(row, col int) int {
	return row*board.cols + col
}

// PositionOf is the inverse of Index.
func (board *Board) PositionOf(index int) Position {
	return Position{Row: index / board.cols, Col: index % board.cols}
}

// Neighbors returns the in-bounds positions of the 8-neighborhood.
func (board *Board) Neighbors(row, col int) []Position {
	neighbors := make([]Position, 0, 8)
	for dRow := -1; dRow <= 1; dRow++ {
		for dCol := -1; dCol <= 1; dCol++ {
			if dRow == 0 && dCol == 0 {
				continue
			}
			if board.InBounds(row+dRow, col+dCol) {
				neighbors = append(neighbors, Position{Row: row + dRow, Col: col + dCol})
			}
		}
	}
	return neighbors
}

// PlaceMinesAvoiding lays out the board's mines, keeping the clamped 3x3
// around (safeRow, safeCol) clear whenever enough cells remain outside it.
// When the zone is too large, only the safe cell itself is excluded.
func (board *Board) PlaceMinesAvoiding(rng *rand.Rand, safeRow, safeCol int) error {
	if board.minesPlaced {
		return ErrMinesPlaced
	}
	if !board.InBounds(safeRow, safeCol) {
		return fmt.Errorf("%w: safe cell (%d, %d)", ErrOutOfBounds, safeRow, safeCol)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	excluded := make(collections.Set[int])
	excluded.Add(board.Index(safeRow, safeCol))

	zone := board.Neighbors(safeRow, safeCol)
	if board.NumCells()-(len(zone)+1) >= board.numMines {
		for _, pos := range zone {
			excluded.Add(board.Index(pos.Row, pos.Col))
		}
	}

	// Store candidate indexes, to shuffle and take the first numMines
	candidates := make([]int, 0, board.NumCells()-excluded.Len())
	for idx := 0; idx < board.NumCells(); idx++ {
		if !excluded.Contains(idx) {
			candidates = append(candidates, idx)
		}
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, idx := range candidates[:board.numMines] {
		pos := board.PositionOf(idx)
		board.cells[pos.Row][pos.Col].isMine = true
	}

	board.minesPlaced = true
	return nil
}

// ComputeAdjacency fills in the neighboring mine count of every safe cell.
func (board *Board) ComputeAdjacency() {
	for row := 0; row < board.rows; row++ {
		for col := 0; col < board.cols; col++ {
			cell := &board.cells[row][col]
			if cell.isMine {
				continue
			}

			count := 0
			for _, pos := range board.Neighbors(row, col) {
				if board.cells[pos.Row][pos.Col].isMine {
					count++
				}
			}
			cell.numMines = count
		}
	}
}

// Reveal opens a cell. Out-of-bounds, revealed and flagged cells are left
// alone. Opening a zero cell floods outward over its zero-count region.
func (board *Board) Reveal(row, col int) RevealOutcome {
	var outcome RevealOutcome

	cell := board.CellAt(row, col)
	if cell == nil || cell.isRevealed || cell.isFlagged {
		return outcome
	}

	cell.reveal()
	outcome.Revealed = append(outcome.Revealed, cell.Position())

	if cell.isMine {
		outcome.Detonated = true
		return outcome
	}

	if cell.numMines == 0 {
		board.cascadeEmpty(cell, func(cell *Cell) {
			outcome.Revealed = append(outcome.Revealed, cell.Position())
			outcome.Detonated = outcome.Detonated || cell.isMine
		})
	}

	return outcome
}

// Chord reveals the hidden neighbors of a revealed number once the player
// has flagged exactly that many of its neighbors.
func (board *Board) Chord(row, col int) RevealOutcome {
	var outcome RevealOutcome

	cell := board.CellAt(row, col)
	if cell == nil || !cell.isRevealed || cell.isMine || cell.numMines == 0 {
		return outcome
	}

	neighbors := board.Neighbors(row, col)
	numFlaggedNeighbors := 0
	for _, pos := range neighbors {
		if board.cells[pos.Row][pos.Col].isFlagged {
			numFlaggedNeighbors++
		}
	}

	if numFlaggedNeighbors != cell.numMines {
		return outcome
	}
	for _, pos := range neighbors {
		outcome.merge(board.Reveal(pos.Row, pos.Col))
	}
	return outcome
}

// ToggleFlag flips the flag on a hidden cell and reports whether anything
// changed.
func (board *Board) ToggleFlag(row, col int) bool {
	cell := board.CellAt(row, col)
	if cell == nil || cell.isRevealed {
		return false
	}

	cell.toggleFlagged()
	if cell.isFlagged {
		board.numFlags++
	} else {
		board.numFlags--
	}
	return true
}

// RemainingFlags is the mine count minus placed flags. Over-flagging makes
// it negative.
func (board *Board) RemainingFlags() int {
	return board.numMines - board.numFlags
}

// IsCleared reports whether every safe cell has been revealed. Flags play no
// part in it.
func (board *Board) IsCleared() bool {
	for row := range board.cells {
		for col := range board.cells[row] {
			cell := &board.cells[row][col]
			if !cell.isMine && !cell.isRevealed {
				return false
			}
		}
	}
	return true
}

// RevealAllMines annotates a lost board: mines are exposed and flags on safe
// cells are marked wrong. Revealed and flagged state is left untouched.
func (board *Board) RevealAllMines() {
	for row := range board.cells {
		for col := range board.cells[row] {
			board.cells[row][col].revealLost()
		}
	}
}

// FlagAllMines annotates a won board by showing every mine as flagged.
func (board *Board) FlagAllMines() {
	for row := range board.cells {
		for col := range board.cells[row] {
			board.cells[row][col].revealWon()
		}
	}
}

// States returns the render state of every cell, row by row.
func (board *Board) States() [][]CellState {
	states := make([][]CellState, board.rows)
	for row := range board.cells {
		states[row] = make([]CellState, board.cols)
		for col := range board.cells[row] {
			states[row][col] = board.cells[row][col].state
		}
	}
	return states
}
