package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/they4kman/gosweep/director/constraint"
	"github.com/they4kman/gosweep/director/random"
	"github.com/they4kman/gosweep/game"
)

var (
	difficulty       = game.Beginner
	challengeSeconds int
	seed             int64
	directorName     string
	snapshotsDir     string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gameConfig := game.NewGameConfig()

		gameConfig.Difficulty = difficulty
		if !cmd.Flags().Changed("difficulty") && appConfig.Difficulty != "" {
			parsed, err := game.ParseDifficulty(appConfig.Difficulty)
			if err != nil {
				return err
			}
			gameConfig.Difficulty = parsed
		}

		if !cmd.Flags().Changed("challenge") {
			challengeSeconds = appConfig.ChallengeSeconds
		}
		if challengeSeconds != 0 {
			mode, err := game.Challenge(challengeSeconds)
			if err != nil {
				return err
			}
			gameConfig.Timing = mode
		}

		gameConfig.Seed = appConfig.Seed
		if cmd.Flags().Changed("seed") {
			gameConfig.Seed = seed
		}

		gameConfig.SavedSnapshotsDir = appConfig.SnapshotsDir
		if cmd.Flags().Changed("snapshots-dir") {
			gameConfig.SavedSnapshotsDir = snapshotsDir
		}

		switch strings.ToLower(directorName) {
		case "":
		case "random":
			gameConfig.Director = &random.Director{}
		case "constraint":
			gameConfig.Director = &constraint.Director{}
		default:
			return fmt.Errorf("unknown director %q", directorName)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		store := openRecords(ctx)
		defer store.Close()
		gameConfig.Records = store

		return game.Run(ctx, gameConfig, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

type difficultyValue game.Difficulty

func newDifficultyValue(val game.Difficulty, p *game.Difficulty) *difficultyValue {
	*p = val
	return (*difficultyValue)(p)
}

func (value *difficultyValue) String() string {
	return strings.ToLower(game.Difficulty(*value).String())
}

func (value *difficultyValue) Set(s string) error {
	parsed, err := game.ParseDifficulty(s)
	if err != nil {
		return err
	}
	*value = difficultyValue(parsed)
	return nil
}

func (value *difficultyValue) Type() string {
	return "game.Difficulty"
}

func init() {
	playCmd.Flags().VarP(newDifficultyValue(game.Beginner, &difficulty), "difficulty", "d", `Board preset:
beginner: 9x9, 10 mines
intermediate: 16x16, 40 mines
expert: 16x30, 99 mines`)
	playCmd.Flags().IntVarP(&challengeSeconds, "challenge", "t", 0,
		fmt.Sprintf("Play against a countdown of this many seconds (%d-%d)", game.MinChallengeSeconds, game.MaxChallengeSeconds))
	playCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for mine placement (0 picks one)")
	playCmd.Flags().StringVar(&directorName, "director", "", "Make the computer play: random or constraint")
	playCmd.Flags().StringVar(&snapshotsDir, "snapshots-dir", "", "Directory to save finished boards to")

	rootCmd.AddCommand(playCmd)
}
