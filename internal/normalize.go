package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Normalizer yields JPEG bytes for any supported image. JPEG input is returned
// as-is; everything else goes through the converter chain in order.
type Normalizer struct {
	Converters []Converter
	TempDir    string // parent for per-image scratch dirs, "" means the OS default
	Log        *zap.Logger
}

func (n *Normalizer) EnsureJPEG(ctx context.Context, img SourceFile) ([]byte, error) {
	if img.IsJPEG() {
		data, err := os.ReadFile(img.Path)
		if err != nil {
			return nil, ioErr("read", img.Path, err)
		}
		return data, nil
	}

	scratch, err := os.MkdirTemp(n.TempDir, "motionmux-convert-*")
	if err != nil {
		return nil, ioErr("mkdir", n.TempDir, err)
	}
	defer os.RemoveAll(scratch)

	dst := filepath.Join(scratch, img.Stem+".jpg")
	var attempts error
	for _, c := range n.Converters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.Available() {
			n.logger().Debug("converter unavailable", zap.String("converter", c.Name()))
			continue
		}

		data, err := n.tryConvert(ctx, c, img.Path, dst)
		if err != nil {
			n.logger().Debug("converter failed",
				zap.String("converter", c.Name()),
				zap.String("file", img.Path),
				zap.Error(err))
			attempts = multierr.Append(attempts, fmt.Errorf("%s: %w", c.Name(), err))
			os.Remove(dst)
			continue
		}

		n.logger().Debug("converted", zap.String("converter", c.Name()), zap.String("file", img.Path))
		return data, nil
	}

	if attempts == nil {
		return nil, fmt.Errorf("%s: %w", img.Path, ErrConversionUnavailable)
	}
	return nil, fmt.Errorf("%s: %w (%v)", img.Path, ErrConversionUnavailable, attempts)
}

// tryConvert runs one converter and insists the result really is a JPEG
func (n *Normalizer) tryConvert(ctx context.Context, c Converter, src, dst string) ([]byte, error) {
	if err := c.Convert(ctx, src, dst); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, err
	}
	if mt := mimetype.Detect(data); !mt.Is("image/jpeg") {
		return nil, fmt.Errorf("produced %s, not image/jpeg", mt.String())
	}
	return data, nil
}

func (n *Normalizer) logger() *zap.Logger {
	if n.Log == nil {
		return zap.NewNop()
	}
	return n.Log
}
