package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"apidump/internal/config"
	apierrors "apidump/internal/errors"
	"apidump/internal/loader"
	"apidump/internal/printer"
	"apidump/internal/slogutil"
	"apidump/internal/snapshot"
	"apidump/internal/version"
)

// cliApp carries what every command needs once flags are parsed.
type cliApp struct {
	stdout io.Writer
	stderr io.Writer

	repoRoot  string
	verbosity int
	quiet     bool

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func newApp(stdout, stderr io.Writer) *cliApp {
	return &cliApp{
		stdout: stdout,
		stderr: stderr,
		logger: slogutil.NewDiscardLogger(),
	}
}

func (a *cliApp) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "apidump",
		Short: "apidump - public API surface printer",
		Long: `apidump renders the public surface of a .NET-style library as C#-like
declaration text, one declaration per line in a stable order, so that
two versions of a library can be compared with a plain text diff.

Inputs are graph manifests (.yaml, .yml, .json, .toml), C# reference
sources (.cs files or directories of them) and SCIP indexes (.scip).`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}
	root.SetVersionTemplate("apidump version {{.Version}}\n")
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.repoRoot, "root", ".", "Project root holding .apidump/config.json")
	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Only log errors")

	root.AddCommand(
		a.dumpCmd(),
		a.convertCmd(),
		a.snapshotCmd(),
		a.diffCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the config and builds the logger.
func (a *cliApp) setup() error {
	cfg, err := config.LoadConfig(a.repoRoot)
	if err != nil {
		return err
	}
	logger, closer, err := slogutil.NewCLILogger(a.stderr, cfg.Logging, a.verbosity, a.quiet)
	if err != nil {
		return apierrors.New(apierrors.ConfigInvalid, "opening log file", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer
	return nil
}

func (a *cliApp) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *cliApp) loaderOptions() loader.Options {
	return loader.Options{
		Parallelism:   a.cfg.Input.Parallelism,
		DefaultFormat: a.cfg.Input.DefaultFormat,
		Logger:        a.logger,
	}
}

func (a *cliApp) renderOptions() printer.Options {
	return printer.Options{
		ShowAllInterfaces:    a.cfg.Render.ShowAllInterfaces,
		ShowUnsafeValueTypes: a.cfg.Render.ShowUnsafeValueTypes,
		ShowNullable:         a.cfg.Render.ShowNullable,
	}
}

// render loads inputs into one graph and prints its surface.
func (a *cliApp) render(ctx context.Context, inputs []string, opts printer.Options) (string, error) {
	g, err := loader.Load(ctx, inputs, a.loaderOptions())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := printer.Render(&b, g, opts, a.logger); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (a *cliApp) openStore() (*snapshot.Store, error) {
	return snapshot.Open(a.cfg.StoragePath(a.repoRoot), a.logger)
}
