//go:build !cgo

package csharp

import (
	"context"
	"errors"
	"log/slog"

	apierrors "apidump/internal/errors"
	"apidump/internal/graphfile"
)

// Available reports whether this build can parse C# sources.
const Available = false

// ErrNoCGO is returned when C# parsing is unavailable due to missing CGO.
var ErrNoCGO = errors.New("C# parsing requires CGO (tree-sitter)")

// Parser is a stub for builds without CGO.
type Parser struct{}

// NewParser returns a parser whose methods always fail.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{}
}

// ParseFile returns ErrNoCGO.
func (p *Parser) ParseFile(ctx context.Context, path string) (*graphfile.Manifest, error) {
	return nil, apierrors.New(apierrors.UnsupportedFormat, path, ErrNoCGO)
}

// ParseSource returns ErrNoCGO.
func (p *Parser) ParseSource(ctx context.Context, name string, src []byte) (*graphfile.Manifest, error) {
	return nil, apierrors.New(apierrors.UnsupportedFormat, name, ErrNoCGO)
}
