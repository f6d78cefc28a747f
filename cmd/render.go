package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/they4kman/gosweep/game"
	"github.com/they4kman/gosweep/render"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render SNAPSHOT",
	Short: "Draw a saved board snapshot as a PNG image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		snapshot, err := game.LoadSnapshot(string(raw))
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		board, err := snapshot.Board()
		if err != nil {
			return err
		}

		output := renderOutput
		if output == "" {
			output = strings.TrimSuffix(args[0], ".yaml") + ".png"
		}

		file, err := os.Create(output)
		if err != nil {
			return err
		}
		defer file.Close()

		if err := render.PNG(file, game.BoardViewOf(board)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Image path (default: snapshot path with .png)")

	rootCmd.AddCommand(renderCmd)
}
