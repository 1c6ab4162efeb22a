// -- internal/userprompt/console.go --

// Package userprompt collects answers from the operator when every
// automated source has come up empty. It renders the field on the
// terminal, numbered options included, and parses the reply back into
// candidate values.
package userprompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

var _ schemas.Prompter = (*Console)(nil)

// Console prompts on a terminal. The reader and writer are injectable
// so tests can drive it with buffers.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole() *Console {
	return &Console{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewConsoleWith builds a Console over arbitrary streams.
func NewConsoleWith(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// AskField shows the question and reads one line. An empty line means
// the operator chose to skip, reported as ok=false. For optioned
// fields the reply may be option numbers or labels; commas separate
// several choices.
func (c *Console) AskField(ctx context.Context, field *schemas.Field) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(c.out, "\n? %s\n", field.DisplayLabel())

	if field.Kind.IsOptioned() && len(field.Options) > 0 {
		for i, opt := range field.Options {
			fmt.Fprintf(c.out, "  %2d) %s\n", i+1, opt.Label)
		}
	}

	dim := color.New(color.Faint)
	switch {
	case field.AllowsMultiple:
		dim.Fprintln(c.out, "  (numbers or labels, comma separated; Enter to skip)")
	case field.Kind.IsOptioned() && len(field.Options) > 0:
		dim.Fprintln(c.out, "  (number or label; Enter to skip)")
	default:
		dim.Fprintln(c.out, "  (Enter to skip)")
	}
	fmt.Fprint(c.out, "> ")

	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("failed to read user input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false, nil
	}

	if field.Kind.IsOptioned() && len(field.Options) > 0 {
		return c.parseChoices(field, line), true, nil
	}
	return []string{line}, true, nil
}

// Confirm asks a yes/no question. Anything other than an explicit yes
// counts as no.
func (c *Console) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	color.New(color.FgYellow, color.Bold).Fprintf(c.out, "\n%s [y/N] ", prompt)

	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// parseChoices maps a comma separated reply onto option labels. A
// token that is a valid 1-based index selects that option; anything
// else passes through verbatim for the matcher to judge.
func (c *Console) parseChoices(field *schemas.Field, line string) []string {
	var values []string
	for _, token := range strings.Split(line, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= len(field.Options) {
			values = append(values, field.Options[n-1].Label)
			continue
		}
		values = append(values, token)
	}
	return values
}
