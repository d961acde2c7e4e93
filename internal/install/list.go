package install

import "sort"

// Installed describes one installed package for listing. Version is
// the newest installed version; Older holds any other versions still
// on disk, sorted. Provider is set for provides stubs and names the id
// the alias redirects to.
type Installed struct {
	Name     string
	Version  string
	Older    []string
	Provider string
}

// List returns the installed packages sorted by name, one row per
// package. Multiple coexisting versions of a name collapse into a
// single row led by the newest version.
func (s *Store) List() ([]Installed, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}

	versions := make(map[string][]string)
	var rows []Installed
	for _, e := range entries {
		lines, err := s.Read(e.ID())
		if err != nil {
			return nil, err
		}
		if target, isStub := StubTarget(lines); isStub {
			rows = append(rows, Installed{Name: e.Name, Version: e.Version, Provider: target})
			continue
		}
		versions[e.Name] = append(versions[e.Name], e.Version)
	}

	for name, vs := range versions {
		newest := NewestVersion(vs)
		var older []string
		for _, v := range vs {
			if v != newest {
				older = append(older, v)
			}
		}
		sort.Strings(older)
		rows = append(rows, Installed{Name: name, Version: newest, Older: older})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
