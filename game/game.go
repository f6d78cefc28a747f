package game

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type GameConfig struct {
	Difficulty Difficulty
	Timing     TimingMode

	// Seed for the session's random source; zero picks one from the clock
	Seed int64

	// Where the times of won games go
	Records RecordSink

	Director Director
	// Delay between two director actions
	DirectorInterval time.Duration

	// Path to directory where final snapshots of boards should be saved
	SavedSnapshotsDir string

	// Called once whenever a game is won or lost
	OnGameEnd func(*Session)
}

func NewGameConfig() GameConfig {
	return GameConfig{
		Difficulty:       Beginner,
		Timing:           Elapsed(),
		Director:         nil,
		DirectorInterval: 200 * time.Millisecond,
	}
}

func (config GameConfig) onGameEnd(session *Session) {
	config.saveSnapshot(session)

	if config.OnGameEnd != nil {
		config.OnGameEnd(session)
	}
}

func (config GameConfig) saveSnapshot(session *Session) {
	if config.SavedSnapshotsDir == "" {
		return
	}

	log := logrus.WithField("dir", config.SavedSnapshotsDir)

	stat, err := os.Stat(config.SavedSnapshotsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("cannot save snapshot")
			return
		}
		if err := os.MkdirAll(config.SavedSnapshotsDir, 0o755); err != nil {
			log.WithError(err).Warn("cannot create snapshots directory")
			return
		}
	} else if !stat.Mode().IsDir() {
		log.Warn("snapshots path is not a directory")
		return
	}

	serialized, err := session.Snapshot().Serialize()
	if err != nil {
		log.WithError(err).Warn("cannot serialize snapshot")
		return
	}

	path := filepath.Join(config.SavedSnapshotsDir, config.generateReplayFilename(session, time.Now()))
	if err := os.WriteFile(path, []byte(serialized), 0o644); err != nil {
		log.WithError(err).Warn("cannot write snapshot")
		return
	}

	log.WithField("path", path).Debug("saved snapshot")
}

func (config GameConfig) generateReplayFilename(session *Session, t time.Time) string {
	filenameBuilder := strings.Builder{}

	filenameBuilder.WriteString(t.Format("20060102_150405_"))

	// The game id keeps two games finished in the same second apart
	id := session.ID()
	if len(id) > 8 {
		id = id[:8]
	}
	filenameBuilder.WriteString(id)
	filenameBuilder.WriteByte('_')

	var stateStr string
	switch session.Status() {
	case Won:
		stateStr = "win"
	case Lost:
		stateStr = "loss"
	default:
		stateStr = "other"
	}
	filenameBuilder.WriteString(stateStr)

	filenameBuilder.WriteString(".yaml")

	return filenameBuilder.String()
}

const helpText = `commands:
  o ROW COL       open a cell
  f ROW COL       toggle a flag
  c ROW COL       open the neighbors of a satisfied number
  n               new game
  d DIFFICULTY    new game on beginner, intermediate or expert
  t SECONDS       new challenge game with a countdown
  q               quit
`

// Run plays sessions in the terminal. Input lines, clock ticks and director
// moves are all handled on the calling goroutine, so the session is never
// touched concurrently.
func Run(ctx context.Context, config GameConfig, in io.Reader, out io.Writer) error {
	session, err := NewSession(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	second := time.NewTicker(time.Second)
	defer second.Stop()

	var act <-chan time.Time
	if config.Director != nil {
		interval := config.DirectorInterval
		if interval <= 0 {
			interval = NewGameConfig().DirectorInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		act = ticker.C

		config.Director.Init(session)
	}

	draw := func() {
		if err := session.View().WriteText(out); err != nil {
			logrus.WithError(err).Warn("cannot draw board")
		}
	}

	draw()
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				if config.Director == nil {
					return nil
				}
				// Keep watching the director after input runs dry
				lines = nil
				continue
			}

			quit, newGame, err := runCommand(session, line, out)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if quit {
				return nil
			}
			if newGame && config.Director != nil {
				config.Director.Init(session)
			}
			draw()

		case <-second.C:
			if event := session.Tick(); event.Ended {
				draw()
			}

		case <-act:
			if session.Status().IsTerminal() {
				return nil
			}
			action, ok := config.Director.Act()
			if !ok {
				return nil
			}
			if event := session.Apply(action); event.Accepted {
				draw()
			}
		}
	}
}

func runCommand(session *Session, line string, out io.Writer) (quit, newGame bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, false, nil
	}

	cellAction := func(action Action) error {
		if len(fields) != 3 {
			return fmt.Errorf("usage: %s ROW COL", fields[0])
		}
		row, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid row %q", fields[1])
		}
		col, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid column %q", fields[2])
		}
		session.Apply(CellAction{Position: Position{Row: row, Col: col}, Action: action})
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "o", "open":
		return false, false, cellAction(Click)
	case "f", "flag":
		return false, false, cellAction(RightClick)
	case "c", "chord":
		return false, false, cellAction(MiddleClick)
	case "n", "new":
		return false, true, session.Reset()
	case "d", "difficulty":
		if len(fields) != 2 {
			return false, false, fmt.Errorf("usage: %s DIFFICULTY", fields[0])
		}
		difficulty, err := ParseDifficulty(fields[1])
		if err != nil {
			return false, false, err
		}
		return false, true, session.StartNewGame(difficulty, Elapsed())
	case "t", "challenge":
		seconds := DefaultChallengeSeconds
		if len(fields) == 2 {
			if seconds, err = strconv.Atoi(fields[1]); err != nil {
				return false, false, fmt.Errorf("invalid seconds %q", fields[1])
			}
		}
		mode, err := Challenge(seconds)
		if err != nil {
			return false, false, err
		}
		return false, true, session.StartNewGame(session.Difficulty(), mode)
	case "q", "quit", "exit":
		return true, false, nil
	case "h", "help", "?":
		_, err := io.WriteString(out, helpText)
		return false, false, err
	default:
		return false, false, fmt.Errorf("unknown command %q, try help", fields[0])
	}
}
