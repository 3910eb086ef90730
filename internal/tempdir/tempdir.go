// Package tempdir provides exclusively owned scratch directories that are
// removed when their owner is done with them.
package tempdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	dserrors "github.com/Manta-Network/cli/internal/errors"
)

// DefaultPattern names directories created by Acquire when no pattern is given.
const DefaultPattern = "manta-*"

// Dir is a handle to a freshly created directory. Only the handle's owner may
// remove it; handles are never shared between sessions.
type Dir struct {
	path string
	once sync.Once
	err  error
}

// Acquire creates a new directory under the system temp location. Each call
// yields a distinct directory.
func Acquire(pattern string) (*Dir, error) {
	return AcquireIn("", pattern)
}

// AcquireIn is Acquire with an explicit parent directory.
func AcquireIn(parent, pattern string) (*Dir, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	path, err := os.MkdirTemp(parent, pattern)
	if err != nil {
		return nil, dserrors.Wrap(dserrors.IO, "temporary directory", err, "unable to create temporary directory")
	}
	return &Dir{path: path}, nil
}

// Path returns the directory location.
func (d *Dir) Path() string {
	return d.path
}

// Join returns a path inside the directory.
func (d *Dir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.path}, elem...)...)
}

// Close removes the directory and everything in it. Only the first call does
// any work; later calls return the first result.
func (d *Dir) Close() error {
	d.once.Do(func() {
		if err := os.RemoveAll(d.path); err != nil {
			d.err = fmt.Errorf("remove temporary directory %s: %w", d.path, err)
		}
	})
	return d.err
}

// With acquires a directory, runs fn, and removes the directory however fn
// exits: normal return, error, or panic (which is re-raised after cleanup).
// A cleanup failure is reported only when fn itself succeeded.
func With(pattern string, fn func(*Dir) error) (err error) {
	dir, err := Acquire(pattern)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dir.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(dir)
}
