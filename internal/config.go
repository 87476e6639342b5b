package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Copy conflict policies. Plain copies never overwrite.
const (
	ConflictFail = "fail"
	ConflictSkip = "skip"
)

type Config struct {
	Output                  string   `mapstructure:"output"`
	Recurse                 bool     `mapstructure:"recurse"`
	Overwrite               bool     `mapstructure:"overwrite"`
	OnConflict              string   `mapstructure:"on_conflict"`
	Converters              []string `mapstructure:"converters"`
	ExiftoolPath            string   `mapstructure:"exiftool_path"`
	ForceExiftoolCLI        bool     `mapstructure:"force_exiftool_cli"`
	PresentationTimestampUs int64    `mapstructure:"presentation_timestamp_us"`
	TempDir                 string   `mapstructure:"temp_dir"`
	LogFile                 string   `mapstructure:"log_file"`
	ManifestDir             string   `mapstructure:"manifest_dir"`
	PreserveTimes           bool     `mapstructure:"preserve_times"`
}

func LoadConfig() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find user config dir: %w", err)
	}
	return loadConfig(viper.New(), filepath.Join(configDir, "motionmux"))
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("motionmux")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("MOTIONMUX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", "")
	v.SetDefault("recurse", false)
	v.SetDefault("overwrite", true)
	v.SetDefault("on_conflict", ConflictFail)
	v.SetDefault("converters", []string{ConverterSips, ConverterImaging, ConverterFFmpeg})
	v.SetDefault("exiftool_path", "")
	v.SetDefault("force_exiftool_cli", false)
	v.SetDefault("presentation_timestamp_us", DefaultPresentationTimestampUs)
	v.SetDefault("temp_dir", "")
	v.SetDefault("log_file", "")
	v.SetDefault("preserve_times", true)

	manifestDir := ""
	if cacheDir, err := os.UserCacheDir(); err == nil {
		manifestDir = filepath.Join(cacheDir, "motionmux", "runs")
	}
	v.SetDefault("manifest_dir", manifestDir)
}

// DefaultConfig returns the built-in defaults without reading any file
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OnConflict, validation.Required, validation.In(ConflictFail, ConflictSkip)),
		validation.Field(&c.Converters, validation.Each(validation.In(ConverterSips, ConverterImaging, ConverterFFmpeg))),
		validation.Field(&c.PresentationTimestampUs, validation.Min(int64(0))),
	)
}

// ValidatePaths rejects an output directory that the scan would pick up again,
// which would make a second run see its own Motion Photos as input.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if inputAbs == outputAbs {
		return fmt.Errorf("output directory must differ from input: %s", outputAbs)
	}
	if c.Recurse {
		rel, err := filepath.Rel(inputAbs, outputAbs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("output directory %s is inside the recursively scanned input %s", outputAbs, inputAbs)
		}
	}
	return nil
}
