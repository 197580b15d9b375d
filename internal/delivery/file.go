package delivery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileSink writes each artifact as its own file in Dir
type FileSink struct {
	Dir       string
	Overwrite bool
	Logger    *slog.Logger
}

// Deliver writes the payload through a temporary file that is renamed into
// place, so a failed attempt never leaves a partial message behind.
func (s *FileSink) Deliver(ctx context.Context, a Artifact) (path string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".emlsave-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(a.Payload); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}

	path, err = s.target(dir, Filename(a.Filename))
	if err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save message: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("message saved", "path", path, "bytes", len(a.Payload))
	}
	return path, nil
}

// target picks the destination path, numbering the name when it is taken
func (s *FileSink) target(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if s.Overwrite {
		return path, nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	ext := filepath.Ext(name)

	for i := 1; i < 1000; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, i, ext))
	}
	return "", fmt.Errorf("too many files named %s in %s", name, dir)
}
