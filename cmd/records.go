package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show or clear the best-time table",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List best times, fastest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openRecords(cmd.Context())
		defer store.Close()

		sorted := store.SortedRecords()
		if len(sorted) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records yet")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSECONDS\tDIFFICULTY\tCOMPLETED")
		for i, record := range sorted {
			completed := "-"
			if !record.CompletedAt.IsZero() {
				completed = record.CompletedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", i+1, record.Seconds, record.Difficulty, completed)
		}
		return w.Flush()
	},
}

var clearWithoutAsking bool

var recordsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearWithoutAsking && !confirm(cmd, "Delete all records? [y/N] ") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}

		store := openRecords(cmd.Context())
		defer store.Close()

		if err := store.ClearRecords(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All records cleared")
		return nil
	},
}

// confirm asks a yes/no question on the command's input; anything but y or
// yes, including end of input, means no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprint(cmd.OutOrStdout(), question)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func init() {
	recordsClearCmd.Flags().BoolVarP(&clearWithoutAsking, "yes", "y", false, "Clear without asking for confirmation")

	recordsCmd.AddCommand(recordsListCmd, recordsClearCmd)
	rootCmd.AddCommand(recordsCmd)
}
