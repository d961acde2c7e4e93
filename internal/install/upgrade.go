package install

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/arcpm/arc/internal/recipe"
)

// Outdated returns the names of installed packages whose recipe version
// differs from every installed version, sorted. Packages whose recipe
// has vanished from the search path are skipped silently; any other
// load failure propagates.
func Outdated(store *Store, loader *recipe.Loader) ([]string, error) {
	entries, err := store.Entries()
	if err != nil {
		return nil, err
	}

	installed := make(map[string][]string)
	for _, e := range entries {
		lines, err := store.Read(e.ID())
		if err != nil {
			return nil, err
		}
		if _, isStub := StubTarget(lines); isStub {
			// Stubs follow their provider; the provider's own entry
			// drives the upgrade.
			continue
		}
		installed[e.Name] = append(installed[e.Name], e.Version)
	}

	var names []string
	for name, versions := range installed {
		p, err := loader.Load(name)
		if err != nil {
			if recipe.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !contains(versions, p.Version()) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// NewestVersion picks the highest of a package's installed versions,
// by semver when every version parses and lexically otherwise. It
// leads the list view when several versions of a name coexist. Version
// strings stay presence keys: the upgrade comparison is exact equality
// and nothing here does constraint solving.
func NewestVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	parsed := make([]*semver.Version, 0, len(versions))
	for _, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			sorted := append([]string{}, versions...)
			sort.Strings(sorted)
			return sorted[len(sorted)-1]
		}
		parsed = append(parsed, sv)
	}
	sort.Sort(semver.Collection(parsed))
	return parsed[len(parsed)-1].Original()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
