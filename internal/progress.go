package internal

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Progress reports per-item advancement of a batch
type Progress interface {
	Start(total int)
	Step(label string)
	Finish()
}

type NopProgress struct{}

func (NopProgress) Start(int)   {}
func (NopProgress) Step(string) {}
func (NopProgress) Finish()     {}

// NewProgress draws a bar on w when w is a terminal; otherwise it is silent
func NewProgress(w io.Writer) Progress {
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		return NopProgress{}
	}
	return &barProgress{w: w}
}

type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("migrating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) Step(label string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(label)
	_ = p.bar.Add(1)
}

func (p *barProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
