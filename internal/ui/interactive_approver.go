// Package ui implements operator confirmation for destructive runs.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/pgreap/internal/tui"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// Prompt is the exact confirmation question.
const Prompt = "Proceed to drop ALL of the above databases? [y/N]: "

// InteractiveApprover asks for a y/N answer on a line-oriented input.
// Only "y" or "yes" (any case, surrounding blanks ignored) approves; end of
// input declines.
type InteractiveApprover struct {
	input   io.Reader
	output  io.Writer
	styled  bool
	verbose bool
}

// NewInteractiveApprover reads stdin and prompts on stdout. The warning
// banner is shown only when a human is at the terminal.
func NewInteractiveApprover(verbose bool) *InteractiveApprover {
	return &InteractiveApprover{
		input:   os.Stdin,
		output:  os.Stdout,
		styled:  tui.IsInteractive(),
		verbose: verbose,
	}
}

// NewInteractiveApproverWithIO is NewInteractiveApprover over explicit streams.
func NewInteractiveApproverWithIO(input io.Reader, output io.Writer, styled bool) *InteractiveApprover {
	return &InteractiveApprover{input: input, output: output, styled: styled}
}

func (a *InteractiveApprover) RequestApproval(ctx context.Context, databases []string) (bool, error) {
	if a.styled {
		banner := fmt.Sprintf("%s  %d database(s) will be dropped permanently", tui.SymbolWarning, len(databases))
		fmt.Fprintln(a.output, tui.BannerStyle.Render(banner))
		if a.verbose {
			fmt.Fprintln(a.output, tui.MutedStyle.Render("Active sessions on each database are terminated first."))
		}
	}
	fmt.Fprint(a.output, Prompt)

	type result struct {
		line string
		err  error
	}
	answer := make(chan result, 1)

	go func() {
		line, err := bufio.NewReader(a.input).ReadString('\n')
		answer <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(a.output)
		return false, ctx.Err()
	case r := <-answer:
		if r.err != nil && !errors.Is(r.err, io.EOF) {
			return false, fmt.Errorf("failed to read input: %w", r.err)
		}
		if errors.Is(r.err, io.EOF) && r.line == "" {
			fmt.Fprintln(a.output)
			return false, nil
		}
		return isYes(r.line), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

var _ pgreap.Approver = (*InteractiveApprover)(nil)
