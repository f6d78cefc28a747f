package game

import (
	"fmt"
	"strings"
)

type Difficulty int

const (
	Beginner Difficulty = iota
	Intermediate
	Expert
)

var Difficulties = []Difficulty{Beginner, Intermediate, Expert}

// Preset is the fixed board shape of a difficulty.
type Preset struct {
	Rows, Cols int
	NumMines   int
}

var presets = map[Difficulty]Preset{
	Beginner:     {Rows: 9, Cols: 9, NumMines: 10},
	Intermediate: {Rows: 16, Cols: 16, NumMines: 40},
	Expert:       {Rows: 16, Cols: 30, NumMines: 99},
}

var difficultyNames = map[Difficulty]string{
	Beginner:     "Beginner",
	Intermediate: "Intermediate",
	Expert:       "Expert",
}

func (difficulty Difficulty) Preset() Preset {
	return presets[difficulty]
}

func (difficulty Difficulty) String() string {
	if name, ok := difficultyNames[difficulty]; ok {
		return name
	}
	return fmt.Sprintf("Difficulty(%d)", int(difficulty))
}

func (difficulty Difficulty) valid() bool {
	_, ok := presets[difficulty]
	return ok
}

// ParseDifficulty accepts the preset name in any case.
func ParseDifficulty(value string) (Difficulty, error) {
	for difficulty, name := range difficultyNames {
		if strings.EqualFold(strings.TrimSpace(value), name) {
			return difficulty, nil
		}
	}
	return Beginner, fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
}
