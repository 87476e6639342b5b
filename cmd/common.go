package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"motionmux/internal"
)

// runtime is what every command builds from config and flags
type runtime struct {
	conf   *internal.Config
	log    *internal.Logger
	writer internal.WriterChain
	batch  *internal.Batch
}

func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	conf, err := internal.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, conf); err != nil {
		return nil, err
	}

	logger, err := internal.NewLogger(conf.LogFile, verboseFlag)
	if err != nil {
		return nil, err
	}

	writer := internal.NewMetadataWriter(conf.ExiftoolPath, conf.ForceExiftoolCLI)
	normalizer := &internal.Normalizer{
		Converters: internal.BuildConverters(conf.Converters),
		TempDir:    conf.TempDir,
		Log:        logger.Logger,
	}
	muxer := &internal.Muxer{
		Writer:                  writer,
		PresentationTimestampUs: conf.PresentationTimestampUs,
		Log:                     logger.Logger,
	}

	return &runtime{
		conf:   conf,
		log:    logger,
		writer: writer,
		batch:  internal.NewBatch(conf, afero.NewOsFs(), normalizer, muxer, logger.Logger),
	}, nil
}

func (r *runtime) Close() {
	if err := r.writer.Close(); err != nil {
		r.log.Warn("closing exiftool", zap.Error(err))
	}
	r.log.Close()
}

// applyFlags lets explicitly set flags win over the config file.
// Flags a command does not define are never Changed.
func applyFlags(cmd *cobra.Command, conf *internal.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		conf.Output, _ = flags.GetString("output")
	}
	if flags.Changed("recurse") {
		conf.Recurse, _ = flags.GetBool("recurse")
	}
	if flags.Changed("overwrite") {
		conf.Overwrite, _ = flags.GetBool("overwrite")
	}
	if flags.Changed("on-conflict") {
		conf.OnConflict, _ = flags.GetString("on-conflict")
	}
	if flags.Changed("converters") {
		conf.Converters, _ = flags.GetStringSlice("converters")
	}
	if flags.Changed("exiftool-path") {
		conf.ExiftoolPath, _ = flags.GetString("exiftool-path")
	}
	if flags.Changed("force-exiftool-cli") {
		conf.ForceExiftoolCLI, _ = flags.GetBool("force-exiftool-cli")
	}
	if flags.Changed("log-file") {
		conf.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("no-manifest") {
		if off, _ := flags.GetBool("no-manifest"); off {
			conf.ManifestDir = ""
		}
	}
	return conf.Validate()
}

// addMigrationFlags registers the flags shared by migrate and watch
func addMigrationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output folder (or second argument)")
	cmd.Flags().BoolP("recurse", "r", false, "Descend into subfolders")
	cmd.Flags().Bool("overwrite", true, "Replace existing Motion Photos in the output")
	cmd.Flags().String("on-conflict", internal.ConflictFail, "When a copy target differs: fail or skip")
	cmd.Flags().StringSlice("converters", nil, "Converters to try for HEIC/PNG (sips,imaging,ffmpeg)")
	cmd.Flags().String("exiftool-path", "", "exiftool binary to use")
	cmd.Flags().Bool("force-exiftool-cli", false, "Run exiftool once per file instead of stay-open")
	cmd.Flags().String("log-file", "", "Also write JSON logs to this file")
	cmd.Flags().Bool("no-manifest", false, "Do not write a run manifest")
}
