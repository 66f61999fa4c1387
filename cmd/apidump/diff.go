package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"apidump/internal/breaking"
	apierrors "apidump/internal/errors"
	"apidump/internal/snapshot"
)

func (a *cliApp) diffCmd() *cobra.Command {
	var format, current string
	cmd := &cobra.Command{
		Use:   "diff BASE TARGET",
		Short: "Compare two API surfaces and report breaking changes",
		Long: `Compare two rendered surfaces declaration by declaration. BASE and
TARGET are surface text files or snapshot references (id, id prefix or
label).

Detects:
- Removed namespaces, types and members
- Changed member signatures and enum values
- Changed type declarations (modifiers, bases, constraints)
- Renamed members
- Additions that implementers of interfaces or abstract classes must
  provide

Exits with status 1 when breaking changes exist.

Examples:
  apidump diff v1.0.0 v1.1.0
  apidump diff old.txt new.txt --format json
  apidump diff v1.0.0 api.txt --format unified
  apidump diff v1.0.0 api.txt --current v1.0.0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "human", "json", "unified":
			default:
				return apierrors.Newf(apierrors.InputInvalid, "unsupported diff format %q (want human, json or unified)", format)
			}

			s := &surfaceSource{app: a}
			defer s.close()
			baseRef, base, err := s.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			targetRef, target, err := s.load(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			result := breaking.CompareSurfaces(base, target)
			result.BaseRef, result.TargetRef = baseRef, targetRef
			if current != "" {
				if err := result.WithNextVersion(current); err != nil {
					return err
				}
			}
			a.logger.Debug("Surfaces compared",
				"base", baseRef, "target", targetRef,
				"changes", len(result.Changes), "advice", result.SemverAdvice)

			color := useColor(a.stdout)
			switch format {
			case "json":
				err = breaking.WriteJSON(a.stdout, result)
			case "unified":
				var diff string
				diff, err = breaking.UnifiedDiff(baseRef, targetRef, base, target)
				if err == nil {
					_, err = io.WriteString(a.stdout, breaking.ColorizeUnified(diff, color))
				}
			default:
				err = breaking.WriteHuman(a.stdout, result, color)
			}
			if err != nil {
				return apierrors.New(apierrors.InternalError, "writing diff", err)
			}

			if result.HasBreakingChanges() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format: human, json or unified")
	cmd.Flags().StringVar(&current, "current", "", "Current version; the report then suggests the next one")
	return cmd
}

// surfaceSource reads surfaces from files or the snapshot store, opening
// the store on first use.
type surfaceSource struct {
	app   *cliApp
	store *snapshot.Store
}

// load returns a display name and the surface text for ref. An existing
// file wins over a snapshot of the same name.
func (s *surfaceSource) load(ctx context.Context, ref string) (string, string, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return "", "", apierrors.New(apierrors.InputNotFound, "reading "+ref, err)
		}
		return ref, string(data), nil
	}
	if s.store == nil {
		store, err := s.app.openStore()
		if err != nil {
			return "", "", err
		}
		s.store = store
	}
	snap, err := s.store.Get(ctx, ref)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s@%s", snap.Label, snap.ShortID()), snap.Text, nil
}

func (s *surfaceSource) close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

// useColor is true when w is a terminal and NO_COLOR is unset.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && breaking.UseColor(f)
}
