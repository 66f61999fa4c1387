// Package loader turns command line inputs into a resolved symbol graph.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"apidump/internal/csharp"
	apierrors "apidump/internal/errors"
	"apidump/internal/graphfile"
	"apidump/internal/scipimport"
	"apidump/internal/slogutil"
	sg "apidump/internal/symbolgraph"
)

// Kind is an input format.
type Kind string

const (
	KindYAML   Kind = "yaml"
	KindJSON   Kind = "json"
	KindTOML   Kind = "toml"
	KindCSharp Kind = "cs"
	KindSCIP   Kind = "scip"
)

// Options tune Load.
type Options struct {
	// Parallelism bounds concurrent file loads; values below 1 mean 1.
	Parallelism int
	// DefaultFormat applies to files with an unrecognised extension.
	DefaultFormat string
	Logger        *slog.Logger
}

// Source is one file to load.
type Source struct {
	Path string
	Kind Kind
}

// skipped while expanding directories
var ignoredDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	".git":         true,
	"node_modules": true,
}

// DetectKind maps a file extension to an input kind.
func DetectKind(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindYAML, true
	case ".json":
		return KindJSON, true
	case ".toml":
		return KindTOML, true
	case ".cs":
		return KindCSharp, true
	case ".scip":
		return KindSCIP, true
	}
	return "", false
}

// Expand resolves inputs to sources. Directories contribute their .cs files
// in lexical order.
func Expand(inputs []string, defaultFormat string) ([]Source, error) {
	if len(inputs) == 0 {
		return nil, apierrors.Newf(apierrors.InputNotFound, "no inputs given")
	}
	var out []Source
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apierrors.New(apierrors.InputNotFound, fmt.Sprintf("input %s does not exist", in), err)
			}
			return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("cannot read input %s", in), err)
		}
		if info.IsDir() {
			files, err := sourceFiles(in)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				return nil, apierrors.Newf(apierrors.InputNotFound, "directory %s contains no .cs files", in)
			}
			for _, f := range files {
				out = append(out, Source{Path: f, Kind: KindCSharp})
			}
			continue
		}
		kind, ok := DetectKind(in)
		if !ok {
			if defaultFormat == "" {
				return nil, apierrors.Newf(apierrors.UnsupportedFormat, "cannot tell the format of %s", in)
			}
			kind = Kind(defaultFormat)
		}
		out = append(out, Source{Path: in, Kind: kind})
	}
	return out, nil
}

func sourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".cs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to scan %s", dir), err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadManifests reads every source concurrently. The result is in source
// order regardless of completion order.
func LoadManifests(ctx context.Context, sources []Source, opts Options) ([]*graphfile.Manifest, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}

	manifests := make([]*graphfile.Manifest, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			start := time.Now()
			m, err := loadOne(gctx, src, logger)
			if err != nil {
				return err
			}
			manifests[i] = m
			logger.Debug("Loaded input", "path", src.Path, "kind", src.Kind, "duration", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return manifests, nil
}

func loadOne(ctx context.Context, src Source, logger *slog.Logger) (*graphfile.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch src.Kind {
	case KindYAML, KindJSON, KindTOML:
		return decodeManifest(src.Path, graphfile.Format(src.Kind))
	case KindCSharp:
		// tree-sitter parsers are not safe for concurrent use
		return csharp.NewParser(logger).ParseFile(ctx, src.Path)
	case KindSCIP:
		return scipimport.ImportFile(ctx, src.Path, logger)
	}
	return nil, apierrors.Newf(apierrors.UnsupportedFormat, "unsupported input format %q for %s", src.Kind, src.Path)
}

func decodeManifest(path string, f graphfile.Format) (*graphfile.Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.InputNotFound, fmt.Sprintf("manifest %s does not exist", path), err)
		}
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to read %s", path), err)
	}
	defer file.Close()
	m, err := graphfile.Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load expands inputs, reads them and builds one graph. Later inputs may
// refer to types declared by earlier ones and the other way round.
func Load(ctx context.Context, inputs []string, opts Options) (*sg.Graph, error) {
	sources, err := Expand(inputs, opts.DefaultFormat)
	if err != nil {
		return nil, err
	}
	manifests, err := LoadManifests(ctx, sources, opts)
	if err != nil {
		return nil, err
	}
	return graphfile.Build(manifests...)
}

// LoadManifest reads a single input into a manifest, whatever its format.
func LoadManifest(ctx context.Context, input string, opts Options) (*graphfile.Manifest, error) {
	sources, err := Expand([]string{input}, opts.DefaultFormat)
	if err != nil {
		return nil, err
	}
	manifests, err := LoadManifests(ctx, sources, opts)
	if err != nil {
		return nil, err
	}
	return Merge(manifests), nil
}

// Merge concatenates manifests. The result is nullable-aware only when
// every part is, and namespaces keep their own usings.
func Merge(manifests []*graphfile.Manifest) *graphfile.Manifest {
	if len(manifests) == 1 {
		return manifests[0]
	}
	out := &graphfile.Manifest{Version: graphfile.CurrentVersion, Nullable: len(manifests) > 0}
	for _, m := range manifests {
		out.Nullable = out.Nullable && m.Nullable
		out.Namespaces = append(out.Namespaces, m.Namespaces...)
		out.Externals = append(out.Externals, m.Externals...)
	}
	return out
}
