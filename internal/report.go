package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

type MuxedItem struct {
	Stem        string `json:"stem"`
	Image       string `json:"image"`
	Video       string `json:"video"`
	Output      string `json:"output"`
	Bytes       int64  `json:"bytes"`
	VideoOffset int64  `json:"video_offset"`
}

type CopiedItem struct {
	Src            string `json:"src"`
	Dest           string `json:"dest"`
	AlreadyPresent bool   `json:"already_present,omitempty"`
}

// SkippedItem is anything that did not reach the output. Category and
// Severity are empty for policy skips that are not errors.
type SkippedItem struct {
	Path     string        `json:"path"`
	Stem     string        `json:"stem,omitempty"`
	Reason   string        `json:"reason"`
	Category ErrorCategory `json:"category,omitempty"`
	Severity ErrorSeverity `json:"severity,omitempty"`
}

// RunReport is the outcome of one Execute
type RunReport struct {
	RunID       string        `json:"run_id"`
	Input       string        `json:"input"`
	Output      string        `json:"output"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Canceled    bool          `json:"canceled,omitempty"`
	Aborted     bool          `json:"aborted,omitempty"`
	AbortReason string        `json:"abort_reason,omitempty"`
	Muxed       []MuxedItem   `json:"muxed"`
	Copied      []CopiedItem  `json:"copied"`
	Skipped     []SkippedItem `json:"skipped"`
	Errors      *ErrorStats   `json:"-"`
}

func NewRunReport(input, output string) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		Input:     input,
		Output:    output,
		StartedAt: time.Now(),
		Errors:    NewErrorStats(),
	}
}

func (r *RunReport) AddMuxed(p Pair, res MuxResult) {
	r.Muxed = append(r.Muxed, MuxedItem{
		Stem:        p.Stem,
		Image:       p.Image.Path,
		Video:       p.Video.Path,
		Output:      res.OutputPath,
		Bytes:       res.ByteLength,
		VideoOffset: res.VideoOffset,
	})
}

func (r *RunReport) AddCopied(src, dest string, alreadyPresent bool) {
	r.Copied = append(r.Copied, CopiedItem{Src: src, Dest: dest, AlreadyPresent: alreadyPresent})
}

func (r *RunReport) AddSkipped(path, stem, reason string) {
	r.Skipped = append(r.Skipped, SkippedItem{Path: path, Stem: stem, Reason: reason})
}

// AddFailure records a categorized error as a skipped item
func (r *RunReport) AddFailure(stem string, procErr *ProcessError) {
	r.Errors.Add(procErr)
	r.Skipped = append(r.Skipped, SkippedItem{
		Path:     procErr.FilePath,
		Stem:     stem,
		Reason:   procErr.OriginalErr.Error(),
		Category: procErr.Category,
		Severity: procErr.Severity,
	})
}

// Failed counts skipped items that are errors rather than policy skips
func (r *RunReport) Failed() int {
	n := 0
	for _, s := range r.Skipped {
		if s.Severity == ErrorSeverityError || s.Severity == ErrorSeverityCritical {
			n++
		}
	}
	return n
}

func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// DisplayReport prints the report as a table or JSON
func DisplayReport(w io.Writer, r *RunReport, format string) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	}

	var muxedBytes int64
	for _, m := range r.Muxed {
		muxedBytes += m.Bytes
	}
	present := 0
	for _, c := range r.Copied {
		if c.AlreadyPresent {
			present++
		}
	}

	fmt.Fprintf(w, "\n=== Run %s ===\n", r.RunID)
	color.New(color.FgGreen).Fprintf(w, "  ✅ Motion Photos: %d (%s)\n", len(r.Muxed), humanize.Bytes(uint64(muxedBytes)))
	fmt.Fprintf(w, "  📄 Copied:        %d", len(r.Copied))
	if present > 0 {
		fmt.Fprintf(w, " (%d already present)", present)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ⏭️  Skipped:       %d\n", len(r.Skipped)-r.Failed())
	if failed := r.Failed(); failed > 0 {
		color.New(color.FgRed).Fprintf(w, "  ❌ Failed:        %d\n", failed)
	} else {
		fmt.Fprintf(w, "  ❌ Failed:        0\n")
	}
	fmt.Fprintf(w, "  ⏱️  Took %s\n", r.Duration().Round(time.Millisecond))

	if r.Canceled {
		color.New(color.FgYellow).Fprintln(w, "  Run was canceled before all items were processed")
	}
	if r.Aborted {
		color.New(color.FgRed).Fprintf(w, "  Run aborted: %s\n", r.AbortReason)
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w, "\nSkipped:")
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  - %s: %s\n", filepath.Base(s.Path), s.Reason)
		}
	}

	if r.Errors.Total > 0 {
		fmt.Fprint(w, r.Errors.GenerateReport())
	}
	return nil
}
