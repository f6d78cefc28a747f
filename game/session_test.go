package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	seconds int
	label   string
}

type recordSink struct {
	records []record
	err     error
}

func (sink *recordSink) AddRecord(seconds int, label string) error {
	sink.records = append(sink.records, record{seconds, label})
	return sink.err
}

func newTestSession(t *testing.T, difficulty Difficulty, timing TimingMode, sink RecordSink) *Session {
	t.Helper()

	config := NewGameConfig()
	config.Difficulty = difficulty
	config.Timing = timing
	config.Seed = 1
	config.Records = sink

	session, err := NewSession(config)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session
}

// startGame opens the center cell and fails the test unless the game is then
// running.
func startGame(t *testing.T, session *Session) Event {
	t.Helper()

	board := session.Board()
	event := session.ActivateCell(board.Rows()/2, board.Cols()/2)
	if !event.Accepted || event.Status != Running {
		t.Fatalf("first click: %+v", event)
	}
	return event
}

// clearBoard opens every remaining safe cell and returns the last event.
func clearBoard(t *testing.T, session *Session) Event {
	t.Helper()

	var last Event
	board := session.Board()
	for row := 0; row < board.Rows(); row++ {
		for col := 0; col < board.Cols(); col++ {
			cell := board.CellAt(row, col)
			if cell.IsMine() || cell.IsRevealed() {
				continue
			}
			if event := session.ActivateCell(row, col); event.Accepted {
				last = event
			}
		}
	}
	return last
}

func findHiddenMine(t *testing.T, board *Board) Position {
	t.Helper()

	for row := 0; row < board.Rows(); row++ {
		for col := 0; col < board.Cols(); col++ {
			if cell := board.CellAt(row, col); cell.IsMine() && !cell.IsFlagged() {
				return cell.Position()
			}
		}
	}
	t.Fatalf("no mine on the board")
	return Position{}
}

func TestNewSession(t *testing.T) {
	session := newTestSession(t, Beginner, Elapsed(), nil)

	if session.Status() != NotStarted {
		t.Fatalf("status %v, want not-started", session.Status())
	}
	if session.Counter() != 0 || session.RemainingFlags() != 10 {
		t.Fatalf("counter %d flags %d", session.Counter(), session.RemainingFlags())
	}
	if session.Board().MinesPlaced() {
		t.Fatalf("mines placed before the first click")
	}
	if session.ID() == "" {
		t.Fatalf("empty game id")
	}
	if session.DifficultyLabel() != "Beginner" {
		t.Fatalf("label %q", session.DifficultyLabel())
	}
}

func TestStartNewGameUnknownDifficulty(t *testing.T) {
	session := newTestSession(t, Beginner, Elapsed(), nil)
	if err := session.StartNewGame(Difficulty(7), Elapsed()); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestFirstClickIsSafe(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		config := NewGameConfig()
		config.Seed = seed
		session, err := NewSession(config)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}

		event := session.ActivateCell(0, 8)
		if !event.Accepted || event.Status == Lost {
			t.Fatalf("seed %d: first click %+v", seed, event)
		}
		if session.Board().CellAt(0, 8).IsMine() {
			t.Fatalf("seed %d: first click landed on a mine", seed)
		}
		if len(event.Revealed) == 0 || event.Revealed[0] != (Position{0, 8}) {
			t.Fatalf("seed %d: revealed %v", seed, event.Revealed)
		}
	}
}

func TestInputBeforeFirstClick(t *testing.T) {
	session := newTestSession(t, Beginner, Elapsed(), nil)

	if event := session.Tick(); event.Accepted || session.Counter() != 0 {
		t.Fatalf("tick accepted before start: %+v", event)
	}
	if event := session.ToggleMark(0, 0); event.Accepted || session.Board().CellAt(0, 0).IsFlagged() {
		t.Fatalf("flag accepted before start: %+v", event)
	}
	if event := session.Chord(0, 0); event.Accepted {
		t.Fatalf("chord accepted before start: %+v", event)
	}
	if event := session.ActivateCell(9, 9); event.Accepted || session.Status() != NotStarted {
		t.Fatalf("out of bounds click started the game: %+v", event)
	}
}

func TestElapsedClock(t *testing.T) {
	session := newTestSession(t, Intermediate, Elapsed(), nil)
	startGame(t, session)

	for i := 0; i < 5; i++ {
		if event := session.Tick(); !event.Accepted || event.Ended {
			t.Fatalf("tick %d: %+v", i, event)
		}
	}
	if session.Counter() != 5 {
		t.Fatalf("counter %d, want 5", session.Counter())
	}

	session.clock.counter = 1500
	if session.DisplayCounter() != MaxDisplaySeconds {
		t.Fatalf("display %d, want %d", session.DisplayCounter(), MaxDisplaySeconds)
	}
	if session.Tick(); session.Counter() != 1501 {
		t.Fatalf("raw counter stopped at %d", session.Counter())
	}
}

func TestWinRecordsTime(t *testing.T) {
	sink := &recordSink{}
	session := newTestSession(t, Intermediate, Elapsed(), sink)
	startGame(t, session)

	session.Tick()
	session.Tick()
	session.Tick()

	event := clearBoard(t, session)
	if !event.Ended || event.Status != Won || event.Cause != Cleared {
		t.Fatalf("final event %+v", event)
	}
	if len(sink.records) != 1 || sink.records[0] != (record{3, "Intermediate"}) {
		t.Fatalf("records %+v", sink.records)
	}

	board := session.Board()
	for row := 0; row < board.Rows(); row++ {
		for col := 0; col < board.Cols(); col++ {
			if cell := board.CellAt(row, col); cell.IsMine() && cell.State() != Flag {
				t.Fatalf("mine %v shown as %v", cell.Position(), cell.State())
			}
		}
	}

	// Terminal: nothing changes until a new game
	if event := session.Tick(); event.Accepted || session.Counter() != 3 {
		t.Fatalf("tick after win: %+v", event)
	}
	mine := findHiddenMine(t, board)
	if event := session.ActivateCell(mine.Row, mine.Col); event.Accepted || session.Status() != Won {
		t.Fatalf("click after win: %+v", event)
	}
	if len(sink.records) != 1 {
		t.Fatalf("win recorded twice")
	}
}

func TestWinSurvivesRecordError(t *testing.T) {
	sink := &recordSink{err: errors.New("disk full")}
	session := newTestSession(t, Intermediate, Elapsed(), sink)
	startGame(t, session)

	if event := clearBoard(t, session); event.Status != Won {
		t.Fatalf("final event %+v", event)
	}
	if len(sink.records) != 1 {
		t.Fatalf("record not offered to the sink")
	}
}

func TestDetonationLoses(t *testing.T) {
	sink := &recordSink{}
	session := newTestSession(t, Intermediate, Elapsed(), sink)
	startGame(t, session)
	session.Tick()

	mine := findHiddenMine(t, session.Board())
	event := session.ActivateCell(mine.Row, mine.Col)
	if !event.Ended || event.Status != Lost || event.Cause != Detonated {
		t.Fatalf("event %+v", event)
	}
	if state := session.Board().CellAt(mine.Row, mine.Col).State(); state != MineLosing {
		t.Fatalf("detonated mine shown as %v", state)
	}
	if len(sink.records) != 0 {
		t.Fatalf("loss recorded: %+v", sink.records)
	}
	if event := session.Tick(); event.Accepted || session.Counter() != 1 {
		t.Fatalf("clock kept running after loss")
	}
	if event := session.ToggleMark(0, 0); event.Accepted {
		t.Fatalf("flag accepted after loss")
	}
}

func TestToggleMarkWhileRunning(t *testing.T) {
	session := newTestSession(t, Intermediate, Elapsed(), nil)
	startGame(t, session)

	mine := findHiddenMine(t, session.Board())
	event := session.ToggleMark(mine.Row, mine.Col)
	if !event.Accepted || event.Ended {
		t.Fatalf("event %+v", event)
	}
	if session.RemainingFlags() != 39 {
		t.Fatalf("remaining flags %d, want 39", session.RemainingFlags())
	}

	// A flagged cell can't be opened
	if event := session.ActivateCell(mine.Row, mine.Col); event.Accepted || session.Status() != Running {
		t.Fatalf("flagged mine opened: %+v", event)
	}
}

func TestChallengeTimeout(t *testing.T) {
	timing, err := Challenge(10)
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}

	sink := &recordSink{}
	session := newTestSession(t, Intermediate, timing, sink)
	if session.Counter() != 10 {
		t.Fatalf("counter %d before start, want 10", session.Counter())
	}
	startGame(t, session)

	for i := 0; i < 9; i++ {
		if event := session.Tick(); event.Ended {
			t.Fatalf("ended early at tick %d", i)
		}
	}
	if session.Counter() != 1 {
		t.Fatalf("counter %d, want 1", session.Counter())
	}

	event := session.Tick()
	if !event.Ended || event.Status != Lost || event.Cause != TimedOut {
		t.Fatalf("event %+v", event)
	}
	if len(sink.records) != 0 {
		t.Fatalf("timeout recorded: %+v", sink.records)
	}
}

func TestChallengeWinRecordsRemainingSeconds(t *testing.T) {
	timing, _ := Challenge(60)
	sink := &recordSink{}
	session := newTestSession(t, Intermediate, timing, sink)
	startGame(t, session)

	for i := 0; i < 4; i++ {
		session.Tick()
	}
	if event := clearBoard(t, session); event.Status != Won {
		t.Fatalf("final event %+v", event)
	}
	if len(sink.records) != 1 || sink.records[0] != (record{56, "Intermediate (Challenge)"}) {
		t.Fatalf("records %+v", sink.records)
	}
}

func TestResetLeavesChallenge(t *testing.T) {
	timing, _ := Challenge(30)
	session := newTestSession(t, Expert, timing, nil)
	startGame(t, session)
	id := session.ID()

	if err := session.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if session.Timing().IsChallenge() || session.Counter() != 0 {
		t.Fatalf("still in challenge mode: %v", session.Timing())
	}
	if session.Status() != NotStarted || session.Difficulty() != Expert {
		t.Fatalf("status %v difficulty %v", session.Status(), session.Difficulty())
	}
	if session.ID() == id {
		t.Fatalf("reset kept the game id")
	}
	if session.Board().MinesPlaced() || session.RemainingFlags() != 99 {
		t.Fatalf("reset kept the old board")
	}
}

func TestSameSeedSameBoards(t *testing.T) {
	layout := func() string {
		session := newTestSession(t, Expert, Elapsed(), nil)
		startGame(t, session)
		return session.Snapshot().SerializedBoard
	}
	if first, second := layout(), layout(); first != second {
		t.Fatalf("boards differ for one seed")
	}
}

func TestGameEndHookAndSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	ended := 0

	config := NewGameConfig()
	config.Difficulty = Intermediate
	config.Seed = 3
	config.SavedSnapshotsDir = dir
	config.OnGameEnd = func(*Session) { ended++ }

	session, err := NewSession(config)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	startGame(t, session)
	mine := findHiddenMine(t, session.Board())
	session.ActivateCell(mine.Row, mine.Col)

	if ended != 1 {
		t.Fatalf("hook called %d times", ended)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*_loss.yaml"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("snapshot files %v (%v)", matches, err)
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	snapshot, err := LoadSnapshot(string(raw))
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snapshot.Seed != session.Seed() || snapshot.Difficulty != "Intermediate" {
		t.Fatalf("snapshot %+v", snapshot)
	}
}

func TestApplyRoutesActions(t *testing.T) {
	session := newTestSession(t, Intermediate, Elapsed(), nil)

	if event := session.Apply(CellAction{Position: Position{8, 8}, Action: Click}); event.Status != Running {
		t.Fatalf("click: %+v", event)
	}

	mine := findHiddenMine(t, session.Board())
	session.Apply(CellAction{Position: mine, Action: RightClick})
	if !session.Board().CellAt(mine.Row, mine.Col).IsFlagged() {
		t.Fatalf("right click did not flag")
	}

	if event := session.Apply(CellAction{Position: Position{8, 8}, Action: Action(9)}); event.Accepted {
		t.Fatalf("unknown action accepted")
	}
}
