package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"motionmux/internal"
)

var (
	yesFlag     bool
	dryRunFlag  bool
	detailsFlag bool
	formatFlag  string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [input] [output]",
	Short: "Merge pairs into Motion Photos and copy everything else",
	Long: `Scan the input folder, show what was found, then (after confirmation)
write one <name>.jpg Motion Photo per still+video pair into the output folder.
Unpaired and unsupported files are copied as-is; existing copies are never overwritten.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		info, err := os.Stat(input)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", input)
		}

		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if len(args) == 2 {
			rt.conf.Output = args[1]
		}
		if rt.conf.Output == "" {
			return fmt.Errorf("missing output folder: pass it as second argument, --output, or set output in config")
		}

		inputAbs, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		outputAbs, err := filepath.Abs(rt.conf.Output)
		if err != nil {
			return err
		}
		if err := rt.conf.ValidatePaths(inputAbs, outputAbs); err != nil {
			return err
		}
		rt.conf.Output = outputAbs

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		if dryRunFlag {
			scan, err := rt.batch.Scan(ctx, inputAbs)
			if err != nil {
				return err
			}
			summary := internal.Summarize(scan.Root, scan.Files, scan.Resolution)
			if err := internal.DisplaySummary(out, summary, formatFlag); err != nil {
				return err
			}
			if detailsFlag && formatFlag != internal.FormatJSON {
				internal.DisplayDetails(out, scan.Resolution)
			}
			return nil
		}

		var prompter internal.Prompter = internal.NewTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		if yesFlag {
			prompter = internal.FixedChoice(internal.ChoiceProceed)
		}
		rt.batch.Progress = internal.NewProgress(os.Stderr)

		report, err := rt.batch.Run(ctx, inputAbs, prompter, out)
		if report != nil {
			if derr := internal.DisplayReport(out, report, formatFlag); derr != nil {
				return derr
			}
		}
		if err != nil {
			return err
		}
		if report == nil {
			fmt.Fprintln(out, "Aborted, nothing written.")
		}
		return nil
	},
}

func init() {
	addMigrationFlags(migrateCmd)
	migrateCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the prompt and proceed")
	migrateCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Only show the summary, write nothing")
	migrateCmd.Flags().BoolVar(&detailsFlag, "details", false, "With --dry-run, list every pair and leftover file")
	migrateCmd.Flags().StringVar(&formatFlag, "format", internal.FormatTable, "Report format: table, json")

	rootCmd.AddCommand(migrateCmd)
}
