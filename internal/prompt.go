package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Choice is the user's answer after the summary
type Choice int

const (
	ChoiceProceed Choice = iota + 1
	ChoiceList
	ChoiceAbort
)

func (c Choice) String() string {
	switch c {
	case ChoiceProceed:
		return "proceed"
	case ChoiceList:
		return "list"
	case ChoiceAbort:
		return "abort"
	default:
		return "unknown"
	}
}

type Prompter interface {
	Choose(ctx context.Context) (Choice, error)
}

// FixedChoice answers every prompt the same way (--yes, watch mode)
type FixedChoice Choice

func (c FixedChoice) Choose(ctx context.Context) (Choice, error) {
	return Choice(c), ctx.Err()
}

// TerminalPrompter shows the numbered menu and re-asks on bad input.
// End of input counts as abort.
type TerminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewScanner(in), out: out}
}

func (p *TerminalPrompter) Choose(ctx context.Context) (Choice, error) {
	for {
		if err := ctx.Err(); err != nil {
			return ChoiceAbort, err
		}

		fmt.Fprintln(p.out, "\nWhat next?")
		fmt.Fprintln(p.out, "  1) Proceed with migration")
		fmt.Fprintln(p.out, "  2) List files by group")
		fmt.Fprintln(p.out, "  3) Abort")
		fmt.Fprint(p.out, "Choose [1-3]: ")

		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return ChoiceAbort, err
			}
			fmt.Fprintln(p.out)
			return ChoiceAbort, nil
		}

		switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
		case "1", "y", "yes":
			return ChoiceProceed, nil
		case "2", "l", "list":
			return ChoiceList, nil
		case "3", "q", "quit", "n", "no":
			return ChoiceAbort, nil
		default:
			fmt.Fprintln(p.out, "Invalid choice, enter 1, 2 or 3.")
		}
	}
}
