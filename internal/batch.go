package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// State of an interactive run
type State int

const (
	StateScanning State = iota
	StateSummarized
	StateListing
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateSummarized:
		return "summarized"
	case StateListing:
		return "listing"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ScanResult is a classified and resolved input directory
type ScanResult struct {
	Root       string
	Files      []SourceFile
	Resolution Resolution
}

// Batch drives a migration from one input directory into Config.Output.
// Pairs are processed one at a time.
type Batch struct {
	Config     *Config
	Fs         afero.Fs
	Lister     Lister
	Normalizer *Normalizer
	Muxer      *Muxer
	Progress   Progress
	Log        *zap.Logger

	state State
}

func NewBatch(cfg *Config, fs afero.Fs, normalizer *Normalizer, muxer *Muxer, log *zap.Logger) *Batch {
	if log == nil {
		log = zap.NewNop()
	}
	return &Batch{
		Config:     cfg,
		Fs:         fs,
		Lister:     FsLister{Fs: fs},
		Normalizer: normalizer,
		Muxer:      muxer,
		Progress:   NopProgress{},
		Log:        log,
	}
}

func (b *Batch) State() State { return b.state }

func (b *Batch) setState(s State) {
	b.Log.Debug("state change", zap.Stringer("from", b.state), zap.Stringer("to", s))
	b.state = s
}

// Scan lists, classifies and pairs root. An unreadable root is fatal.
func (b *Batch) Scan(ctx context.Context, root string) (*ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := ScanFiles(b.Lister, root, b.Config.Recurse)
	if err != nil {
		return nil, fmt.Errorf("cannot read input directory: %w", err)
	}
	res := Resolve(files)
	b.Log.Info("scan complete",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("pairs", len(res.Pairs)),
		zap.Int("ambiguous", len(res.Ambiguous)))
	return &ScanResult{Root: root, Files: files, Resolution: res}, nil
}

// Run is the interactive flow: scan, show the summary, then act on the
// prompter's choices until it proceeds or aborts. A nil report with a nil
// error means the user aborted.
func (b *Batch) Run(ctx context.Context, root string, prompter Prompter, out io.Writer) (*RunReport, error) {
	b.setState(StateScanning)
	scan, err := b.Scan(ctx, root)
	if err != nil {
		b.setState(StateDone)
		return nil, err
	}

	b.setState(StateSummarized)
	if err := DisplaySummary(out, Summarize(scan.Root, scan.Files, scan.Resolution), FormatTable); err != nil {
		b.setState(StateDone)
		return nil, err
	}

	for {
		choice, err := prompter.Choose(ctx)
		if err != nil {
			b.setState(StateDone)
			return nil, err
		}

		switch choice {
		case ChoiceProceed:
			b.setState(StateExecuting)
			report, err := b.Execute(ctx, scan)
			b.setState(StateDone)
			return report, err
		case ChoiceList:
			b.setState(StateListing)
			DisplayDetails(out, scan.Resolution)
			b.setState(StateSummarized)
		default:
			b.setState(StateDone)
			return nil, nil
		}
	}
}

// Execute writes every resolved pair as a Motion Photo and copies everything
// else verbatim. Per-item failures land in the report; only an unusable output
// root returns an error. Cancellation is checked between items.
func (b *Batch) Execute(ctx context.Context, scan *ScanResult) (*RunReport, error) {
	out := b.Config.Output
	if out == "" {
		return nil, errors.New("output directory is required")
	}
	if err := b.prepareOutput(out); err != nil {
		return nil, err
	}

	report := NewRunReport(scan.Root, out)
	session := b.openSession(report)
	if session != nil {
		defer session.Close()
	}

	res := scan.Resolution
	copies := copyList(res)
	if session != nil {
		session.LogRunStart(len(scan.Files), len(res.Pairs))
	}

	for _, a := range res.Ambiguous {
		procErr := CategorizeError(a.Stem, fmt.Errorf("%s: %w", a.Stem, ErrAmbiguousPair))
		report.AddFailure(a.Stem, procErr)
		b.Log.Warn("ambiguous basename, copying members as-is",
			zap.String("stem", a.Stem),
			zap.Strings("tied", fileNames(a.Candidates())))
		if session != nil {
			session.LogError(a.Stem, procErr)
		}
	}
	for _, p := range res.Pairs {
		for _, alt := range append(append([]SourceFile{}, p.AlternateImages...), p.AlternateVideos...) {
			reason := fmt.Sprintf("alternate of pair %s", p.Stem)
			report.AddSkipped(alt.Path, p.Stem, reason)
			if session != nil {
				session.LogSkipped(alt.Path, reason)
			}
		}
	}

	b.Progress.Start(len(res.Pairs) + len(copies))
	defer b.Progress.Finish()

	for _, p := range res.Pairs {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}
		b.processPair(ctx, report, session, p)
		b.Progress.Step(p.Stem)
		if b.checkAbort(report) {
			break
		}
	}

	if !report.Canceled && !report.Aborted {
		for _, f := range copies {
			if ctx.Err() != nil {
				report.Canceled = true
				break
			}
			b.copyFile(report, session, f)
			b.Progress.Step(f.Name())
			if b.checkAbort(report) {
				break
			}
		}
	}

	report.FinishedAt = time.Now()
	if session != nil {
		session.LogRunEnd(report.Canceled)
	}
	b.Log.Info("run complete",
		zap.String("run_id", report.RunID),
		zap.Int("muxed", len(report.Muxed)),
		zap.Int("copied", len(report.Copied)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Bool("canceled", report.Canceled))

	if report.Aborted {
		return report, fmt.Errorf("%w: %s", ErrOutputUnwritable, report.AbortReason)
	}
	return report, nil
}

func (b *Batch) processPair(ctx context.Context, report *RunReport, session *Session, p Pair) {
	dest := filepath.Join(b.Config.Output, p.OutputName())

	if !b.Config.Overwrite {
		if _, err := b.Fs.Stat(dest); err == nil {
			reason := "output exists and overwrite is disabled"
			report.AddSkipped(p.Image.Path, p.Stem, reason)
			if session != nil {
				session.LogSkipped(p.Image.Path, reason)
			}
			return
		}
	}

	jpegBytes, err := b.Normalizer.EnsureJPEG(ctx, p.Image)
	if err != nil {
		b.fail(report, session, p.Image.Path, p.Stem, err)
		return
	}

	videoBytes, err := afero.ReadFile(b.Fs, p.Video.Path)
	if err != nil {
		b.fail(report, session, p.Video.Path, p.Stem, ioErr("read", p.Video.Path, err))
		return
	}

	res, err := b.Muxer.Mux(ctx, jpegBytes, videoBytes, dest)
	if err != nil {
		b.fail(report, session, p.Image.Path, p.Stem, err)
		return
	}

	if b.Config.PreserveTimes {
		if t, err := CaptureTime(p.Image.Path); err == nil {
			if err := b.Fs.Chtimes(dest, t, t); err != nil {
				b.Log.Debug("could not set output time", zap.String("dest", dest), zap.Error(err))
			}
		}
	}

	report.AddMuxed(p, res)
	if session != nil {
		session.LogMuxed(p, res)
	}
}

func (b *Batch) copyFile(report *RunReport, session *Session, f SourceFile) {
	dest := filepath.Join(b.Config.Output, f.Name())
	outcome, err := CopyVerbatim(b.Fs, f.Path, dest, b.Config.OnConflict)
	if err != nil {
		b.fail(report, session, f.Path, f.Stem, err)
		return
	}

	switch outcome {
	case CopySkippedConflict:
		reason := "destination exists with different content"
		report.AddSkipped(f.Path, f.Stem, reason)
		if session != nil {
			session.LogSkipped(f.Path, reason)
		}
	default:
		report.AddCopied(f.Path, dest, outcome == CopyAlreadyPresent)
		if session != nil {
			session.LogCopied(f.Path, dest, outcome.String())
		}
	}
}

func (b *Batch) fail(report *RunReport, session *Session, path, stem string, err error) {
	procErr := CategorizeError(path, err)
	report.AddFailure(stem, procErr)
	b.Log.Warn("item failed",
		zap.String("file", path),
		zap.String("category", string(procErr.Category)),
		zap.Error(err))
	if session != nil {
		session.LogError(path, procErr)
	}
}

func (b *Batch) checkAbort(report *RunReport) bool {
	if abort, reason := report.Errors.ShouldAbort(); abort {
		report.Aborted = true
		report.AbortReason = reason
		b.Log.Error("aborting run", zap.String("reason", reason))
		return true
	}
	return false
}

// prepareOutput creates the output root and proves it takes writes
func (b *Batch) prepareOutput(out string) error {
	if err := b.Fs.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, out, err)
	}
	probe, err := afero.TempFile(b.Fs, out, ".motionmux-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, out, err)
	}
	name := probe.Name()
	probe.Close()
	return b.Fs.Remove(name)
}

func (b *Batch) openSession(report *RunReport) *Session {
	if b.Config.ManifestDir == "" {
		return nil
	}
	session, err := NewSession(b.Config.ManifestDir, report.RunID, report.Input, report.Output)
	if err != nil {
		b.Log.Warn("run manifest disabled", zap.Error(err))
		return nil
	}
	return session
}

// copyList is everything that goes to the output unchanged, in scan order
// within each group.
func copyList(res Resolution) []SourceFile {
	var files []SourceFile
	files = append(files, res.ImagesWithoutVideo...)
	files = append(files, res.VideosWithoutImage...)
	for _, a := range res.Ambiguous {
		files = append(files, a.Files...)
	}
	return append(files, res.Others...)
}
