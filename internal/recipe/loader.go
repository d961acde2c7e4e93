package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Loader resolves package references against the configured search path.
type Loader struct {
	path   []string // search directories, in order
	loaded map[string]*Package
}

// NewLoader creates a loader over the given search directories.
func NewLoader(path []string) *Loader {
	return &Loader{
		path:   path,
		loaded: make(map[string]*Package),
	}
}

// Resolve loads one Package per reference, in input order.
func (l *Loader) Resolve(refs []string) ([]*Package, error) {
	packs := make([]*Package, 0, len(refs))
	for _, ref := range refs {
		p, err := l.Load(ref)
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, nil
}

// Load resolves a single reference. A reference naming a directory that
// contains package.toml (absolute or relative) is used as-is; otherwise
// the first search-path directory with <dir>/<ref>/package.toml wins.
func (l *Loader) Load(ref string) (*Package, error) {
	if p, ok := l.loaded[ref]; ok {
		return p, nil
	}

	dir, err := l.locate(ref)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}

	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, &ParseError{Path: manifestPath, Err: err}
	}
	if err := validate(&m); err != nil {
		return nil, &ParseError{Path: manifestPath, Err: err}
	}

	p := &Package{Name: ref, Manifest: m, Dir: dir}
	l.loaded[ref] = p
	return p, nil
}

// locate finds the recipe directory for a reference.
func (l *Loader) locate(ref string) (string, error) {
	if _, err := os.Stat(filepath.Join(ref, ManifestName)); err == nil {
		abs, err := filepath.Abs(ref)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
		}
		return abs, nil
	}
	for _, dir := range l.path {
		candidate := filepath.Join(dir, ref)
		if _, err := os.Stat(filepath.Join(candidate, ManifestName)); err == nil {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Name: ref}
}

// IsNotFound reports whether err is a failed recipe lookup, as opposed
// to a malformed manifest or I/O failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// validate enforces the required manifest fields. Source/checksum
// pairing is checked at verification time, not here.
func validate(m *Manifest) error {
	if m.Meta.Version == "" {
		return errors.New("meta.version is required")
	}
	return nil
}
