package install

import (
	"fmt"
	"os"

	"github.com/arcpm/arc/internal/ui"
)

// Remover deletes installed packages guided by their manifests.
type Remover struct {
	store *Store
}

// NewRemover creates a remover over the given manifest store.
func NewRemover(store *Store) *Remover {
	return &Remover{store: store}
}

// Remove deletes each named package's files and manifests. Names may be
// bare (every installed version is removed) or explicit name@version.
func (r *Remover) Remove(names []string) error {
	for _, name := range names {
		ids, err := r.lookup(name)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := r.removeOne(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// lookup maps a name to installed manifest ids.
func (r *Remover) lookup(name string) ([]string, error) {
	if _, err := os.Stat(r.store.ManifestPath(name)); err == nil {
		return []string{name}, nil
	}
	entries, err := r.store.Entries()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.Name == name {
			ids = append(ids, e.ID())
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("package %s is not installed", name)
	}
	return ids, nil
}

// removeOne deletes the files of one manifest in reverse (deepest
// first) order, then the manifest itself and any stubs pointing at it.
// Manifest paths are taken literally: no canonicalization, so a symlink
// entry removes the link, never its target.
func (r *Remover) removeOne(id string) error {
	lines, err := r.store.Read(id)
	if err != nil {
		return err
	}

	if target, isStub := StubTarget(lines); isStub {
		name, _, _ := splitID(id)
		return &StubError{Alias: name, Target: target}
	}

	name, _, _ := splitID(id)
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if line == r.store.Dir() {
			continue
		}

		info, err := os.Lstat(line)
		if err != nil {
			continue // already gone
		}

		if info.IsDir() {
			// Only empty directories go; shared parents stay behind.
			_ = os.Remove(line)
			continue
		}

		if owner, owned, err := r.store.Owned(line, name); err != nil {
			return err
		} else if owned {
			// Another package has taken the file over since install.
			ui.InfoIdent("keeping %s (now owned by %s)", line, owner)
			continue
		}

		if err := os.Remove(line); err != nil {
			return fmt.Errorf("couldn't remove file %s: %w", line, err)
		}
	}

	stubs, err := r.store.StubsFor(id)
	if err != nil {
		return err
	}
	for _, stub := range stubs {
		if err := os.Remove(r.store.ManifestPath(stub)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("couldn't remove manifest %s: %w", stub, err)
		}
	}
	if err := os.Remove(r.store.ManifestPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("couldn't remove manifest %s: %w", id, err)
	}

	ui.Info("Removed %s", id)
	return nil
}
