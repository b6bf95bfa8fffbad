// Command crfboost searches per-scene CRF values against a SSIMULACRA2
// target and writes av1an zone files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cerrors "github.com/five82/crfboost/internal/errors"
)

const (
	appName    = "crfboost"
	appVersion = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) && !cerrors.IsCancelled(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	switch {
	case cerrors.IsCancelled(err), errors.Is(err, context.Canceled):
		return 130
	case cerrors.IsKind(err, cerrors.KindConfig):
		return 2
	default:
		return 1
	}
}
