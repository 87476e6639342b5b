package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time or from the embedded VERSION file
var Version = "dev"

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "motionmux",
	Short: "Turn still+video pairs into Google Motion Photos",
	Long: `motionmux scans a folder for Live Photo style pairs (IMG_1.HEIC + IMG_1.MOV),
merges each pair into a single Motion Photo JPEG that Google Photos plays, and
copies everything else to the output folder unchanged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ApplyVersion pushes Version into the cobra command
func ApplyVersion() {
	rootCmd.Version = Version
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log every step to stderr")
	ApplyVersion()
}
