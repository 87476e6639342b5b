package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"motionmux/internal"
)

var muxCmd = &cobra.Command{
	Use:   "mux [image] [video] [output.jpg]",
	Short: "Merge a single still and video into one Motion Photo",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		img := internal.Classify(args[0])
		video := internal.Classify(args[1])
		dest := args[2]

		if img.Kind != internal.KindImage {
			return fmt.Errorf("not a supported image: %s", args[0])
		}
		if video.Kind != internal.KindVideo {
			return fmt.Errorf("not a supported video: %s", args[1])
		}

		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if info, err := os.Stat(dest); err == nil && !info.IsDir() && !rt.conf.Overwrite {
			return fmt.Errorf("%s exists and overwrite is disabled", dest)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("%w: %v", internal.ErrOutputUnwritable, err)
		}

		ctx := cmd.Context()
		still, err := rt.batch.Normalizer.EnsureJPEG(ctx, img)
		if err != nil {
			return err
		}
		videoBytes, err := os.ReadFile(video.Path)
		if err != nil {
			return err
		}

		res, err := rt.batch.Muxer.Mux(ctx, still, videoBytes, dest)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, video offset %d)\n",
			res.OutputPath, humanize.Bytes(uint64(res.ByteLength)), res.VideoOffset)
		return nil
	},
}

func init() {
	muxCmd.Flags().Bool("overwrite", true, "Replace the output if it exists")
	muxCmd.Flags().StringSlice("converters", nil, "Converters to try for HEIC/PNG (sips,imaging,ffmpeg)")
	muxCmd.Flags().String("exiftool-path", "", "exiftool binary to use")
	muxCmd.Flags().Bool("force-exiftool-cli", false, "Run exiftool once per file instead of stay-open")

	rootCmd.AddCommand(muxCmd)
}
