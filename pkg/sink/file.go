package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StdoutPath selects standard output for a FileSink.
const StdoutPath = "-"

// FileSink writes the delimited email list to a file, replacing its
// contents, or to stdout followed by a newline.
type FileSink struct {
	path   string
	stdout io.Writer
}

// NewFileSink creates a sink writing to path. stdout receives output when
// path is "-" and defaults to os.Stdout.
func NewFileSink(path string, stdout io.Writer) *FileSink {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &FileSink{path: path, stdout: stdout}
}

// Name implements Sink.
func (s *FileSink) Name() string {
	if s.path == StdoutPath {
		return "stdout"
	}
	return "file"
}

// Write implements Sink.
func (s *FileSink) Write(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == StdoutPath {
		if _, err := fmt.Fprintln(s.stdout, r.Delimited()); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}

	// Write to a sibling temp file and rename so readers never see a
	// partial list.
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".attend-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, r.Delimited()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Close implements Sink.
func (s *FileSink) Close() error { return nil }
