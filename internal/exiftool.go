package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"sync"

	"github.com/barasher/go-exiftool"
	"go.uber.org/multierr"
)

// MetadataWriter writes integer tags into a file in place
type MetadataWriter interface {
	WriteTags(ctx context.Context, path string, tags map[string]int64) error
}

// NewMetadataWriter returns the stay-open library writer backed by the CLI,
// or the CLI alone when forceCLI is set.
func NewMetadataWriter(binaryPath string, forceCLI bool) WriterChain {
	cli := &ExiftoolCLIWriter{BinaryPath: binaryPath}
	if forceCLI {
		return WriterChain{cli}
	}
	return WriterChain{&ExiftoolWriter{BinaryPath: binaryPath}, cli}
}

// ExiftoolWriter keeps one exiftool process open for the whole batch.
// The process starts on first use.
type ExiftoolWriter struct {
	BinaryPath string

	once     sync.Once
	et       *exiftool.Exiftool
	startErr error
}

func (w *ExiftoolWriter) start() error {
	w.once.Do(func() {
		var opts []func(*exiftool.Exiftool) error
		if w.BinaryPath != "" {
			opts = append(opts, exiftool.SetExiftoolBinaryPath(w.BinaryPath))
		}
		w.et, w.startErr = exiftool.NewExiftool(opts...)
	})
	return w.startErr
}

func (w *ExiftoolWriter) WriteTags(ctx context.Context, path string, tags map[string]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.start(); err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataWriteUnavailable, err)
	}

	fm := exiftool.FileMetadata{File: path, Fields: make(map[string]interface{}, len(tags))}
	for k, v := range tags {
		fm.SetInt(k, v)
	}
	mds := []exiftool.FileMetadata{fm}
	w.et.WriteMetadata(mds)
	removeBackup(path)
	if mds[0].Err != nil {
		return fmt.Errorf("exiftool write %s: %w", path, mds[0].Err)
	}
	return nil
}

func (w *ExiftoolWriter) Close() error {
	if w.et == nil {
		return nil
	}
	return w.et.Close()
}

// ExiftoolCLIWriter runs one exiftool process per file
type ExiftoolCLIWriter struct {
	BinaryPath string
}

func (w *ExiftoolCLIWriter) binary() string {
	if w.BinaryPath != "" {
		return w.BinaryPath
	}
	return "exiftool"
}

func (w *ExiftoolCLIWriter) WriteTags(ctx context.Context, path string, tags map[string]int64) error {
	bin, err := exec.LookPath(w.binary())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetadataWriteUnavailable, err)
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"-overwrite_original"}
	for _, k := range keys {
		args = append(args, "-"+k+"="+strconv.FormatInt(tags[k], 10))
	}
	args = append(args, path)

	if err := runTool(ctx, bin, args...); err != nil {
		return fmt.Errorf("exiftool write %s: %w", path, err)
	}
	return nil
}

// WriterChain tries writers in order. A writer that reports
// ErrMetadataWriteUnavailable passes to the next; any other failure is final.
type WriterChain []MetadataWriter

func (c WriterChain) WriteTags(ctx context.Context, path string, tags map[string]int64) error {
	var unavailable error
	for _, w := range c {
		err := w.WriteTags(ctx, path, tags)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrMetadataWriteUnavailable) {
			return err
		}
		unavailable = multierr.Append(unavailable, err)
	}
	if unavailable == nil {
		return ErrMetadataWriteUnavailable
	}
	return unavailable
}

func (c WriterChain) Close() error {
	var err error
	for _, w := range c {
		if closer, ok := w.(interface{ Close() error }); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

// removeBackup drops the <file>_original copy exiftool leaves without -overwrite_original
func removeBackup(path string) {
	if _, err := os.Stat(path + "_original"); err == nil {
		os.Remove(path + "_original")
	}
}
