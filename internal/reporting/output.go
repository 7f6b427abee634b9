// File: internal/reporting/output.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// IsStdout reports whether path names standard output.
func IsStdout(path string) bool {
	return path == "" || path == "-" || path == "stdout"
}

// OpenOutput opens the report destination. Standard output is wrapped so that
// Close is a no-op; file paths may start with "~" and missing parent
// directories are created.
func OpenOutput(path string) (io.WriteCloser, error) {
	if IsStdout(path) {
		return &nopWriteCloser{os.Stdout}, nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand output path %s: %w", path, err)
	}
	if dir := filepath.Dir(expanded); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", expanded, err)
	}
	return f, nil
}
