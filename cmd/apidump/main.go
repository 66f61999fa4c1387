package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	apierrors "apidump/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	defer app.close()

	root := app.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	printError(stderr, err)
	return apierrors.ExitCode(err)
}

// exitError ends the process with code without printing anything.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var e *apierrors.ApiDumpError
	if !stderrors.As(err, &e) {
		return
	}
	for _, fix := range e.SuggestedFixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  hint: run '%s' (%s)\n", fix.Command, fix.Description)
		case fix.Path != "":
			fmt.Fprintf(w, "  hint: edit %s (%s)\n", fix.Path, fix.Description)
		default:
			fmt.Fprintf(w, "  hint: %s\n", fix.Description)
		}
	}
}
