package internal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Converter names as used in the converters config list
const (
	ConverterSips    = "sips"
	ConverterImaging = "imaging"
	ConverterFFmpeg  = "ffmpeg"
)

// Converter turns one still image into a JPEG file at dst
type Converter interface {
	Name() string
	Available() bool
	Convert(ctx context.Context, src, dst string) error
}

// BuildConverters returns the enabled converters in their fixed trial order:
// sips, imaging, ffmpeg. The order of names does not matter.
func BuildConverters(names []string) []Converter {
	enabled := make(map[string]bool, len(names))
	for _, n := range names {
		enabled[strings.ToLower(n)] = true
	}

	var out []Converter
	for _, c := range []Converter{SipsConverter{}, ImagingConverter{}, FFmpegConverter{}} {
		if enabled[c.Name()] {
			out = append(out, c)
		}
	}
	return out
}

// SipsConverter shells out to macOS sips, which reads HEIC natively
type SipsConverter struct{}

func (SipsConverter) Name() string { return ConverterSips }

func (SipsConverter) Available() bool {
	_, err := exec.LookPath("sips")
	return err == nil
}

func (SipsConverter) Convert(ctx context.Context, src, dst string) error {
	return runTool(ctx, "sips", "-s", "format", "jpeg", src, "--out", dst)
}

// ImagingConverter decodes in-process. The Go decoders cover PNG and JPEG but
// not HEIC, so it declines anything else and the chain moves on.
type ImagingConverter struct {
	Quality int
}

func (ImagingConverter) Name() string { return ConverterImaging }

func (ImagingConverter) Available() bool { return true }

func (c ImagingConverter) Convert(ctx context.Context, src, dst string) error {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".png", ".jpg", ".jpeg":
	default:
		return fmt.Errorf("imaging: unsupported input %s", filepath.Ext(src))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("imaging: decode %s: %w", src, err)
	}
	quality := c.Quality
	if quality == 0 {
		quality = 95
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("imaging: encode %s: %w", dst, err)
	}
	return nil
}

// FFmpegConverter extracts the first frame, which is the still itself
type FFmpegConverter struct{}

func (FFmpegConverter) Name() string { return ConverterFFmpeg }

func (FFmpegConverter) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (FFmpegConverter) Convert(ctx context.Context, src, dst string) error {
	return runTool(ctx, "ffmpeg", "-y", "-loglevel", "error", "-i", src, "-frames:v", "1", "-q:v", "2", dst)
}

// runTool runs an external command and folds its stderr into the error
func runTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
