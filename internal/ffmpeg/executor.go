// Package ffmpeg runs ffmpeg and related command-line tools and builds
// their argument lists.
package ffmpeg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	cerrors "github.com/five82/crfboost/internal/errors"
)

// stderrTailLines bounds how much tool output is kept in error messages.
const stderrTailLines = 20

// Run executes name with args and returns its captured stderr.
func Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stderr.String(), cerrors.NewCancelledError()
		}
		return stderr.String(), cerrors.WrapExecError(name, err, Tail(stderr.String(), stderrTailLines))
	}
	return stderr.String(), nil
}

// Output executes name with args and returns its stdout.
func Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, cerrors.NewCancelledError()
		}
		return nil, cerrors.WrapExecError(name, err, Tail(stderr.String(), stderrTailLines))
	}
	return out, nil
}

// Pipe runs producer and consumer concurrently with the producer's stdout
// connected to the consumer's stdin. Both commands should be created with
// exec.CommandContext so cancellation stops them.
func Pipe(ctx context.Context, producer, consumer *exec.Cmd) error {
	r, w, err := os.Pipe()
	if err != nil {
		return cerrors.NewIOError("failed to create pipe", err)
	}

	var prodStderr, consStderr bytes.Buffer
	producer.Stdout = w
	consumer.Stdin = r
	if producer.Stderr == nil {
		producer.Stderr = &prodStderr
	}
	if consumer.Stderr == nil {
		consumer.Stderr = &consStderr
	}

	prodName := toolName(producer)
	consName := toolName(consumer)

	if err := producer.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return cerrors.NewCommandStartError(prodName, err)
	}
	if err := consumer.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		_ = producer.Process.Kill()
		_ = producer.Wait()
		return cerrors.NewCommandStartError(consName, err)
	}

	// The children hold their own copies; closing ours lets EOF and EPIPE propagate.
	_ = r.Close()
	_ = w.Close()

	consErr := consumer.Wait()
	prodErr := producer.Wait()

	if ctx.Err() != nil {
		return cerrors.NewCancelledError()
	}
	if consErr != nil {
		return cerrors.WrapExecError(consName, consErr, Tail(consStderr.String(), stderrTailLines))
	}
	if prodErr != nil {
		return cerrors.WrapExecError(prodName, prodErr, Tail(prodStderr.String(), stderrTailLines))
	}
	return nil
}

// IsAvailable reports whether a tool is on PATH.
func IsAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Tail returns the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		kept = append(kept, lines[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

func toolName(cmd *exec.Cmd) string {
	if len(cmd.Args) > 0 {
		return filepath.Base(cmd.Args[0])
	}
	return filepath.Base(cmd.Path)
}
