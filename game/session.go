package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RecordSink receives the time of every won game.
type RecordSink interface {
	AddRecord(seconds int, difficultyLabel string) error
}

type EndCause int

const (
	NoCause EndCause = iota
	Cleared
	Detonated
	TimedOut
)

func (cause EndCause) String() string {
	switch cause {
	case Cleared:
		return "cleared"
	case Detonated:
		return "detonated"
	case TimedOut:
		return "timed-out"
	default:
		return "none"
	}
}

// Event is what a single input or tick did to the session.
type Event struct {
	// Whether the session acted on the request at all
	Accepted bool
	// Cells newly revealed, for incremental rendering
	Revealed []Position

	Status GameStatus
	// Set on the event that moved the game into Won or Lost
	Ended bool
	Cause EndCause
}

// Session owns the board of the game being played and drives it through
// NotStarted -> Running -> Won/Lost. It is not safe for concurrent use; an
// adapter must funnel inputs and ticks through one goroutine.
type Session struct {
	config GameConfig
	rand   *rand.Rand
	log    *logrus.Entry

	id         string
	difficulty Difficulty
	board      *Board
	boardSeed  int64
	status     GameStatus
	cause      EndCause
	clock      clock
}

func NewSession(config GameConfig) (*Session, error) {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	session := &Session{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
	if err := session.StartNewGame(config.Difficulty, config.Timing); err != nil {
		return nil, err
	}
	return session, nil
}

// StartNewGame throws away the current board and deals a fresh, mine-free
// one. Mines are placed on the first activated cell.
func (session *Session) StartNewGame(difficulty Difficulty, timing TimingMode) error {
	if !difficulty.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownDifficulty, difficulty)
	}

	preset := difficulty.Preset()
	board, err := NewBoard(preset.Rows, preset.Cols, preset.NumMines)
	if err != nil {
		return err
	}

	session.id = uuid.NewString()
	session.difficulty = difficulty
	session.board = board
	session.boardSeed = session.rand.Int63()
	session.status = NotStarted
	session.cause = NoCause
	session.clock.reset(timing)

	session.log = logrus.WithFields(logrus.Fields{
		"game":       session.id,
		"difficulty": difficulty.String(),
		"timing":     timing.String(),
	})
	session.log.Debug("new game")

	return nil
}

// Reset starts over on the current difficulty, leaving challenge mode.
func (session *Session) Reset() error {
	return session.StartNewGame(session.difficulty, Elapsed())
}

func (session *Session) ID() string {
	return session.id
}

// Board exposes the current board for reading. Only the session mutates it.
func (session *Session) Board() *Board {
	return session.board
}

func (session *Session) Difficulty() Difficulty {
	return session.difficulty
}

func (session *Session) Timing() TimingMode {
	return session.clock.mode
}

func (session *Session) Status() GameStatus {
	return session.status
}

func (session *Session) Cause() EndCause {
	return session.cause
}

// Seed is the random seed the current board's mines are drawn from.
func (session *Session) Seed() int64 {
	return session.boardSeed
}

// Counter is the raw clock value: seconds elapsed, or seconds left in a
// challenge.
func (session *Session) Counter() int {
	return session.clock.counter
}

// DisplayCounter is Counter capped to what a three-digit display can show.
func (session *Session) DisplayCounter() int {
	return session.clock.display()
}

func (session *Session) RemainingFlags() int {
	return session.board.RemainingFlags()
}

// DifficultyLabel names the game in the records, marking challenge runs.
func (session *Session) DifficultyLabel() string {
	if session.clock.mode.IsChallenge() {
		return session.difficulty.String() + " (Challenge)"
	}
	return session.difficulty.String()
}

func (session *Session) canPlay() bool {
	return session.status == NotStarted || session.status == Running
}

func (session *Session) ignored() Event {
	return Event{Status: session.status, Cause: session.cause}
}

// Apply routes a cell action to the matching operation.
func (session *Session) Apply(action CellAction) Event {
	switch action.Action {
	case Click:
		return session.ActivateCell(action.Row, action.Col)
	case RightClick:
		return session.ToggleMark(action.Row, action.Col)
	case MiddleClick:
		return session.Chord(action.Row, action.Col)
	default:
		return session.ignored()
	}
}

func (session *Session) ActivateCell(row, col int) Event {
	if !session.canPlay() {
		return session.ignored()
	}

	cell := session.board.CellAt(row, col)
	if cell == nil || cell.isRevealed || cell.isFlagged {
		return session.ignored()
	}

	if session.status == NotStarted {
		session.begin(row, col)
	}

	return session.settle(session.board.Reveal(row, col))
}

func (session *Session) ToggleMark(row, col int) Event {
	if session.status != Running {
		return session.ignored()
	}
	if !session.board.ToggleFlag(row, col) {
		return session.ignored()
	}
	return session.settle(RevealOutcome{})
}

// Chord opens the unflagged neighbors of a satisfied number.
func (session *Session) Chord(row, col int) Event {
	if session.status != Running {
		return session.ignored()
	}

	outcome := session.board.Chord(row, col)
	if len(outcome.Revealed) == 0 {
		return session.ignored()
	}
	return session.settle(outcome)
}

// Tick advances the clock by one second while the game is running.
func (session *Session) Tick() Event {
	if session.status != Running {
		return session.ignored()
	}

	if session.clock.tick() {
		session.lose(TimedOut)
	}

	return Event{
		Accepted: true,
		Status:   session.status,
		Ended:    session.status.IsTerminal(),
		Cause:    session.cause,
	}
}

func (session *Session) begin(row, col int) {
	session.status = Running
	session.clock.start()

	rng := rand.New(rand.NewSource(session.boardSeed))
	if err := session.board.PlaceMinesAvoiding(rng, row, col); err != nil {
		session.log.WithError(err).Error("could not place mines")
	}
	session.board.ComputeAdjacency()

	session.log.WithFields(logrus.Fields{
		"row": row,
		"col": col,
	}).Info("game started")
}

func (session *Session) settle(outcome RevealOutcome) Event {
	switch {
	case outcome.Detonated:
		session.lose(Detonated)
	case session.board.IsCleared():
		session.win()
	}

	return Event{
		Accepted: true,
		Revealed: outcome.Revealed,
		Status:   session.status,
		Ended:    session.status.IsTerminal(),
		Cause:    session.cause,
	}
}

func (session *Session) win() {
	session.status = Won
	session.cause = Cleared
	session.clock.stop()
	session.board.FlagAllMines()

	seconds := session.clock.counter
	label := session.DifficultyLabel()
	session.log.WithField("seconds", seconds).Info("game won")

	if session.config.Records != nil {
		if err := session.config.Records.AddRecord(seconds, label); err != nil {
			session.log.WithError(err).Warn("could not store time record")
		}
	}

	session.endGame()
}

func (session *Session) lose(cause EndCause) {
	session.status = Lost
	session.cause = cause
	session.clock.stop()
	session.board.RevealAllMines()

	session.log.WithFields(logrus.Fields{
		"cause":   cause.String(),
		"seconds": session.clock.counter,
	}).Info("game lost")

	session.endGame()
}

func (session *Session) endGame() {
	session.config.onGameEnd(session)
}
