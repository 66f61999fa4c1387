// Package printer walks a symbol graph and writes its public surface as
// indented declaration text.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	apierrors "apidump/internal/errors"
	"apidump/internal/format"
	"apidump/internal/ordering"
	"apidump/internal/slogutil"
	sg "apidump/internal/symbolgraph"
)

const indentUnit = "    "

// Options toggle optional parts of the output.
type Options struct {
	// ShowAllInterfaces lists every declared interface instead of the
	// reduced set.
	ShowAllInterfaces bool
	// ShowUnsafeValueTypes prints fixed-buffer helper structs.
	ShowUnsafeValueTypes bool
	// ShowNullable emits ? on annotated reference types.
	ShowNullable bool
}

// DefaultOptions matches the command line defaults.
func DefaultOptions() Options {
	return Options{ShowNullable: true}
}

// Printer renders declarations to a single stream. A Printer is used for one
// run and is not safe for concurrent use.
type Printer struct {
	w      *bufio.Writer
	opts   Options
	fmt    *format.Context
	logger *slog.Logger

	// blockPending is set after a header line whose opening brace has not
	// been written yet.
	blockPending bool
	writeErr     error

	types int
}

// New returns a Printer writing to w.
func New(w io.Writer, opts Options, logger *slog.Logger) *Printer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Printer{
		w:      bufio.NewWriter(w),
		opts:   opts,
		fmt:    format.NewContext(opts.ShowNullable),
		logger: logger,
	}
}

// Render prints g to w with the given options.
func Render(w io.Writer, g *sg.Graph, opts Options, logger *slog.Logger) error {
	return New(w, opts, logger).PrintGraph(g)
}

// RenderString prints g and returns the text.
func RenderString(g *sg.Graph, opts Options) (string, error) {
	var b strings.Builder
	if err := Render(&b, g, opts, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

// PrintGraph prints every namespace of g, depth first, and flushes the
// output. The first error aborts the traversal.
func (p *Printer) PrintGraph(g *sg.Graph) error {
	if err := p.printNamespace(g.Global); err != nil {
		return err
	}
	if err := p.w.Flush(); err != nil && p.writeErr == nil {
		p.writeErr = err
	}
	if p.writeErr != nil {
		return apierrors.New(apierrors.InternalError, "writing output", p.writeErr)
	}
	namespaces, _ := g.Stats()
	p.logger.Debug("Rendered surface", "namespaces", namespaces, "types", p.types)
	return nil
}

func (p *Printer) write(s string) {
	if p.writeErr != nil {
		return
	}
	_, p.writeErr = p.w.WriteString(s)
}

func (p *Printer) writeIndent(indent int) {
	for i := 0; i < indent; i++ {
		p.write(indentUnit)
	}
}

// emit writes one line at indent. A pending block from the previous line is
// first expanded into a brace on its own line. With opensBlock the line is
// left open so that closeBlock can collapse an empty body to { }.
func (p *Printer) emit(line string, indent int, opensBlock bool) {
	if p.blockPending {
		p.write("\n")
		p.writeIndent(indent - 1)
		p.write("{\n")
	}
	p.writeIndent(indent)
	p.write(line)
	p.blockPending = opensBlock
	if !opensBlock {
		p.write("\n")
	}
}

func (p *Printer) closeBlock(indent int) {
	if p.blockPending {
		p.write(" { }\n")
		p.blockPending = false
		return
	}
	p.writeIndent(indent)
	p.write("}\n")
}

func (p *Printer) printNamespace(ns *sg.Namespace) error {
	printed := false
	global := ns.IsGlobal()
	indent := 1
	if global {
		indent = 0
	}
	for _, t := range ordering.SortTypes(ns.Types) {
		if t.Access != sg.Public {
			continue
		}
		if !printed && !global {
			p.emit("namespace "+ns.FullName(), 0, false)
			p.emit("{", 0, false)
			printed = true
		}
		if err := p.printType(t, indent); err != nil {
			return err
		}
	}
	if printed {
		p.emit("}", 0, false)
	}
	for _, child := range ordering.SortNamespaces(ns.Namespaces) {
		if err := p.printNamespace(child); err != nil {
			return err
		}
	}
	return nil
}

func invariantf(subject string, format string, args ...interface{}) error {
	return apierrors.Invariant(subject, format, args...)
}

func memberSubject(m sg.Member) string {
	info := m.Info()
	if info.Containing == nil {
		return info.Name
	}
	return fmt.Sprintf("%s.%s", info.Containing, info.Name)
}
