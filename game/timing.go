package game

import (
	"fmt"
)

const (
	MinChallengeSeconds     = 10
	MaxChallengeSeconds     = 1000
	DefaultChallengeSeconds = 60

	// Largest value a three-digit counter display can show
	MaxDisplaySeconds = 999

	// A challenge countdown at or below this is shown as running low
	LowTimeSeconds = 10
)

// TimingMode selects how the game clock runs: counting up from zero, or
// counting down from a challenge budget that loses the game when it runs out.
type TimingMode struct {
	challenge bool
	seconds   int
}

func Elapsed() TimingMode {
	return TimingMode{}
}

func Challenge(seconds int) (TimingMode, error) {
	if seconds < MinChallengeSeconds || seconds > MaxChallengeSeconds {
		return TimingMode{}, fmt.Errorf(
			"%w: %d seconds, want %d-%d", ErrInvalidChallenge, seconds, MinChallengeSeconds, MaxChallengeSeconds)
	}
	return TimingMode{challenge: true, seconds: seconds}, nil
}

func (mode TimingMode) IsChallenge() bool {
	return mode.challenge
}

// Seconds is the challenge budget, zero in elapsed mode.
func (mode TimingMode) Seconds() int {
	return mode.seconds
}

func (mode TimingMode) String() string {
	if mode.challenge {
		return fmt.Sprintf("challenge(%ds)", mode.seconds)
	}
	return "elapsed"
}

// clock is the single counter behind both timing modes.
type clock struct {
	mode    TimingMode
	counter int
	running bool
}

func (c *clock) reset(mode TimingMode) {
	c.mode = mode
	c.running = false
	c.counter = 0
	if mode.challenge {
		c.counter = mode.seconds
	}
}

func (c *clock) start() {
	c.running = true
}

func (c *clock) stop() {
	c.running = false
}

// tick advances the counter one second and reports whether a challenge
// countdown has run out.
func (c *clock) tick() bool {
	if !c.running {
		return false
	}

	if !c.mode.challenge {
		c.counter++
		return false
	}

	if c.counter > 0 {
		c.counter--
	}
	return c.counter == 0
}

func (c *clock) display() int {
	if c.counter > MaxDisplaySeconds {
		return MaxDisplaySeconds
	}
	return c.counter
}
