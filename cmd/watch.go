package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"motionmux/internal"
)

var settleFlag time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [input] [output]",
	Short: "Migrate a folder, then keep migrating as files arrive",
	Long: `Run a migration without prompting, then watch the input folder and run
again once it has been quiet for --settle. Reruns are safe: Motion Photos are
rebuilt and identical copies are left alone.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		inputAbs, err := filepath.Abs(args[0])
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
		if err := migrateOnce(ctx, rt, inputAbs, out); err != nil {
			return err
		}

		watcher, err := internal.NewWatcher(inputAbs, rt.conf.Recurse)
		if err != nil {
			return fmt.Errorf("failed to start filesystem watcher: %w", err)
		}
		defer watcher.Close()

		fmt.Fprintf(out, "Watching %s (settle %s), Ctrl-C to stop\n", inputAbs, settleFlag)

		// Reruns wait until events stop for settleFlag
		timer := time.NewTimer(settleFlag)
		timer.Stop()
		pending := false

		for {
			select {
			case <-ctx.Done():
				return nil
			case event := <-watcher.Events():
				rt.log.Debug("file event",
					zap.Stringer("type", event.Type),
					zap.String("path", event.Path),
					zap.Stringer("kind", event.Kind))
				pending = true
				timer.Reset(settleFlag)
			case err := <-watcher.Errors():
				rt.log.Warn("watcher error", zap.Error(err))
			case <-timer.C:
				if !pending {
					continue
				}
				pending = false
				if err := migrateOnce(ctx, rt, inputAbs, out); err != nil {
					return err
				}
			}
		}
	},
}

// migrateOnce runs scan and execute without prompting. Only fatal errors
// (unreadable input, unwritable output) are returned.
func migrateOnce(ctx context.Context, rt *runtime, input string, out io.Writer) error {
	scan, err := rt.batch.Scan(ctx, input)
	if err != nil {
		return err
	}
	report, err := rt.batch.Execute(ctx, scan)
	if report != nil {
		if derr := internal.DisplayReport(out, report, internal.FormatTable); derr != nil {
			return derr
		}
	}
	return err
}

func init() {
	addMigrationFlags(watchCmd)
	watchCmd.Flags().DurationVar(&settleFlag, "settle", 5*time.Second, "Quiet period before a rerun")

	rootCmd.AddCommand(watchCmd)
}
