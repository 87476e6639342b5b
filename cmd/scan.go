package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"motionmux/internal"
)

var (
	scanFormatFlag  string
	scanDetailsFlag bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "Show how a folder would be paired, without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]

		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", folder)
		}

		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		scan, err := rt.batch.Scan(cmd.Context(), folder)
		if err != nil {
			return fmt.Errorf("failed to scan folder: %w", err)
		}

		out := cmd.OutOrStdout()
		summary := internal.Summarize(scan.Root, scan.Files, scan.Resolution)
		if err := internal.DisplaySummary(out, summary, scanFormatFlag); err != nil {
			return err
		}
		if scanDetailsFlag && scanFormatFlag != internal.FormatJSON {
			internal.DisplayDetails(out, scan.Resolution)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolP("recurse", "r", false, "Descend into subfolders")
	scanCmd.Flags().StringVar(&scanFormatFlag, "format", internal.FormatTable, "Output format: table, json")
	scanCmd.Flags().BoolVar(&scanDetailsFlag, "details", false, "List every pair and leftover file")

	rootCmd.AddCommand(scanCmd)
}
