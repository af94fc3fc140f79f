// Package fixtures reads recorded provider responses from a fixed directory.
//
// Fixtures are immutable JSON documents identified by file name. The loader
// never caches: every Load reads the file again, so repeated loads of the same
// name are byte-identical as long as nobody edits the directory.
package fixtures

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"weathercontract/internal/core"
)

// Fixture is a loaded fixture file.
type Fixture struct {
	Name string
	Body []byte
	// Digest is the xxhash64 of Body.
	Digest uint64
}

// ETag returns a strong entity tag derived from the fixture digest.
func (f Fixture) ETag() string {
	return `"` + strconv.FormatUint(f.Digest, 16) + `"`
}

// Loader maps fixture names to bytes read from Dir.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the directory fixtures are read from.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the raw bytes of the named fixture.
func (l *Loader) Load(name string) ([]byte, error) {
	f, err := l.Open(name)
	if err != nil {
		return nil, err
	}
	return f.Body, nil
}

// Open reads the named fixture and computes its digest.
func (l *Loader) Open(name string) (Fixture, error) {
	path, err := l.resolve(name)
	if err != nil {
		return Fixture{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fixture{}, core.NewFixtureNotFoundError(name, err)
		}
		return Fixture{}, core.NewConfigurationError(name, "failed to read fixture", err)
	}

	return Fixture{
		Name:   name,
		Body:   data,
		Digest: xxhash.Sum64(data),
	}, nil
}

// Verify checks that every named fixture exists and is a regular file.
// It returns the first failure so setup can abort before any request is served.
func (l *Loader) Verify(names ...string) error {
	for _, name := range names {
		path, err := l.resolve(name)
		if err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return core.NewFixtureNotFoundError(name, err)
			}
			return core.NewConfigurationError(name, "failed to stat fixture", err)
		}
		if !info.Mode().IsRegular() {
			return core.NewConfigurationError(name, "fixture is not a regular file", nil)
		}
	}
	return nil
}

// resolve joins name onto the fixture directory, rejecting names that would
// escape it.
func (l *Loader) resolve(name string) (string, error) {
	if name == "" {
		return "", core.NewConfigurationError("fixture", "fixture name is empty", nil)
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", core.NewConfigurationError(name, fmt.Sprintf("fixture name %q must be a bare file name", name), nil)
	}
	return filepath.Join(l.dir, name), nil
}
