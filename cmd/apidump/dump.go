package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	apierrors "apidump/internal/errors"
	"apidump/internal/paths"
	"apidump/internal/printer"
	"apidump/internal/snapshot"
	"apidump/internal/watcher"
)

type dumpFlags struct {
	allInterfaces    bool
	showArrayStructs bool
	noNullable       bool
	output           string
	save             string
	watch            bool
}

func (a *cliApp) dumpCmd() *cobra.Command {
	var f dumpFlags
	cmd := &cobra.Command{
		Use:   "dump [inputs...]",
		Short: "Print the public API surface of the inputs",
		Long: `Load every input into one symbol graph and print its public surface.

Inputs default to the current directory, which is scanned for .cs files.

Examples:
  apidump dump api.yaml
  apidump dump src/ --output api.txt
  apidump dump index.scip --all-interfaces
  apidump dump api.yaml --save v1.2.0
  apidump dump src/ --output api.txt --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			opts := a.renderOptions()
			if f.allInterfaces {
				opts.ShowAllInterfaces = true
			}
			if f.showArrayStructs {
				opts.ShowUnsafeValueTypes = true
			}
			if f.noNullable {
				opts.ShowNullable = false
			}
			if f.watch {
				return a.watchDump(cmd.Context(), args, opts, f)
			}
			_, err := a.dumpOnce(cmd.Context(), args, opts, f, "")
			return err
		},
	}
	cmd.Flags().BoolVar(&f.allInterfaces, "all-interfaces", false, "List every declared interface instead of the reduced set")
	cmd.Flags().BoolVar(&f.showArrayStructs, "show-array-structs", false, "Print compiler generated fixed-buffer structs")
	cmd.Flags().BoolVar(&f.noNullable, "no-nullable", false, "Omit ? on nullable reference types")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the surface to FILE instead of stdout")
	cmd.Flags().StringVar(&f.save, "save", "", "Store the surface as a snapshot with this label")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Re-render whenever an input changes")
	return cmd
}

// dumpOnce renders and writes the surface. Nothing is written when the
// digest equals previous.
func (a *cliApp) dumpOnce(ctx context.Context, inputs []string, opts printer.Options, f dumpFlags, previous string) (string, error) {
	text, err := a.render(ctx, inputs, opts)
	if err != nil {
		return "", err
	}
	digest := snapshot.Digest(text)
	if digest == previous {
		a.logger.Debug("Surface unchanged", "digest", digest[:12])
		return digest, nil
	}

	if f.output == "" {
		if _, err := fmt.Fprint(a.stdout, text); err != nil {
			return "", apierrors.New(apierrors.InternalError, "writing surface", err)
		}
	} else if err := writeFile(f.output, text); err != nil {
		return "", err
	}

	if f.save != "" {
		store, err := a.openStore()
		if err != nil {
			return "", err
		}
		defer store.Close()
		snap, err := store.Save(ctx, f.save, text)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(a.stderr, "Saved snapshot %s (%s, %d lines)\n", snap.ShortID(), snap.Label, snap.Lines)
	}
	return digest, nil
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return apierrors.New(apierrors.InternalError, "writing "+path, err)
	}
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apierrors.New(apierrors.InternalError, "writing "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apierrors.New(apierrors.InternalError, "writing "+path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return apierrors.New(apierrors.InternalError, "writing "+path, err)
	}
	return nil
}

// watchDump renders once, then again after every quiet period following an
// input change, until ctx ends. Load errors while watching are logged.
func (a *cliApp) watchDump(ctx context.Context, inputs []string, opts printer.Options, f dumpFlags) error {
	last, err := a.dumpOnce(ctx, inputs, opts, f, "")
	if err != nil {
		a.logger.Error("Render failed", "error", err)
	}

	cfg := watcher.DefaultConfig()
	cfg.DebounceMs = a.cfg.Watch.DebounceMs
	// batches may overlap when a render outlasts the debounce delay
	var mu sync.Mutex
	w, err := watcher.New(cfg, a.logger, func(ctx context.Context, events []watcher.Event) {
		mu.Lock()
		defer mu.Unlock()
		a.logger.Info("Inputs changed", "events", len(events), "first", paths.DisplayPath(events[0].Path, a.repoRoot))
		digest, err := a.dumpOnce(ctx, inputs, opts, f, last)
		if err != nil {
			a.logger.Error("Render failed", "error", err)
			return
		}
		last = digest
	})
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := w.Add(in); err != nil {
			w.Close()
			return err
		}
	}
	fmt.Fprintf(a.stderr, "Watching %d input(s); press Ctrl+C to stop\n", len(inputs))
	return w.Run(ctx)
}
