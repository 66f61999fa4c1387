package breaking

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiBold   = "\x1b[1m"
)

// UseColor reports whether f is a terminal and NO_COLOR is unset.
func UseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type painter bool

func (p painter) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + ansiReset
}

// WriteHuman prints a readable report grouped by severity.
func WriteHuman(w io.Writer, r *CompareResult, color bool) error {
	p := painter(color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s -> %s\n", p.paint(ansiBold, "API comparison"), r.BaseRef, r.TargetRef)
	if len(r.Changes) == 0 {
		b.WriteString("No API changes.\n")
	}

	sections := []struct {
		severity Severity
		title    string
		code     string
	}{
		{SeverityBreaking, "Breaking changes", ansiRed},
		{SeverityWarning, "Changes affecting implementers", ansiYellow},
		{SeverityNonBreaking, "Additions", ansiGreen},
	}
	for _, sec := range sections {
		var items []APIChange
		for _, c := range r.Changes {
			if c.Severity == sec.severity {
				items = append(items, c)
			}
		}
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", p.paint(sec.code+ansiBold, sec.title), len(items))
		for _, c := range items {
			fmt.Fprintf(&b, "  %s %s\n", p.paint(sec.code, "["+string(c.Kind)+"]"), c.Path)
			fmt.Fprintf(&b, "      %s\n", c.Description)
			if c.OldValue != "" {
				fmt.Fprintf(&b, "      %s %s\n", p.paint(ansiRed, "-"), c.OldValue)
			}
			if c.NewValue != "" {
				fmt.Fprintf(&b, "      %s %s\n", p.paint(ansiGreen, "+"), c.NewValue)
			}
		}
	}

	if s := r.Summary; s != nil {
		fmt.Fprintf(&b, "\n%d breaking, %d warnings, %d additions; suggested bump: %s",
			s.BreakingChanges, s.Warnings, s.Additions, p.paint(ansiBold, r.SemverAdvice))
		if r.NextVersion != "" {
			fmt.Fprintf(&b, " (%s)", r.NextVersion)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON prints the result as indented JSON.
func WriteJSON(w io.Writer, r *CompareResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ColorizeUnified paints a unified diff for terminals.
func ColorizeUnified(diff string, color bool) string {
	if !color || diff == "" {
		return diff
	}
	p := painter(color)
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(p.paint(ansiBold, body))
		case strings.HasPrefix(body, "@@"):
			b.WriteString(p.paint(ansiCyan, body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(p.paint(ansiGreen, body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(p.paint(ansiRed, body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}
