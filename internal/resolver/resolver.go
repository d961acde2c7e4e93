// Package resolver computes the dependency closure of a set of
// packages. Dependencies are walked depth-first; every package is
// assigned the depth at which it was reached, and higher-depth packages
// must be built and installed before lower-depth ones.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arcpm/arc/internal/recipe"
)

// CycleError reports a dependency cycle discovered during traversal.
type CycleError struct {
	Chain []string // ancestor chain ending at the repeated package
}

func (e *CycleError) Error() string {
	return "circular dependency: " + strings.Join(e.Chain, " -> ")
}

// Loader loads a recipe by name.
type Loader interface {
	Load(ref string) (*recipe.Package, error)
}

// InstalledFunc reports whether name@version is already installed.
// Satisfied dependencies are pruned from the traversal.
type InstalledFunc func(name, version string) bool

// Resolver walks deps and mkdeps edges of loaded packages.
type Resolver struct {
	loader    Loader
	installed InstalledFunc
}

// New creates a resolver. installed may be nil, in which case nothing
// is considered installed.
func New(loader Loader, installed InstalledFunc) *Resolver {
	if installed == nil {
		installed = func(string, string) bool { return false }
	}
	return &Resolver{loader: loader, installed: installed}
}

// Resolve returns the runtime and build-time dependency closures of the
// seeds. Both lists are deduplicated with the greatest observed depth
// winning, a package reached through both edge kinds is kept only in
// mkdeps, and each list is sorted by descending depth.
func (r *Resolver) Resolve(seeds []*recipe.Package, depth int) (deps, mkdeps []*recipe.Package, err error) {
	var rawDeps, rawMkdeps []*recipe.Package

	for _, seed := range seeds {
		chain := []string{seed.Name}
		inChain := map[string]bool{seed.Name: true}
		if err := r.walk(seed, depth, &rawDeps, &rawMkdeps, chain, inChain); err != nil {
			return nil, nil, err
		}
	}

	mkdeps = consolidate(rawMkdeps)
	deps = consolidate(rawDeps)

	// A make dependency must be in place before any runtime dependency
	// that needs it at build time, so mkdeps claims packages reached
	// through both edge kinds.
	inMk := make(map[string]bool, len(mkdeps))
	for _, p := range mkdeps {
		inMk[p.Name] = true
	}
	kept := deps[:0]
	for _, p := range deps {
		if !inMk[p.Name] {
			kept = append(kept, p)
		}
	}
	deps = kept

	return deps, mkdeps, nil
}

// walk recurses over the outgoing edges of p. chain and inChain track
// the current ancestor path for cycle detection; the two raw slices
// collect every sighting partitioned by edge kind.
func (r *Resolver) walk(p *recipe.Package, depth int, rawDeps, rawMkdeps *[]*recipe.Package, chain []string, inChain map[string]bool) error {
	for _, edge := range []struct {
		table map[string]string
		out   *[]*recipe.Package
	}{
		{p.Manifest.MkDeps, rawMkdeps},
		{p.Manifest.Deps, rawDeps},
	} {
		for _, name := range sortedKeys(edge.table) {
			version := edge.table[name]
			if r.installed(name, version) {
				continue
			}
			if inChain[name] {
				return &CycleError{Chain: append(append([]string{}, chain...), name)}
			}

			dep, err := r.loader.Load(name)
			if err != nil {
				return fmt.Errorf("failed to resolve dependency %s of %s: %w", name, p.Name, err)
			}
			// Copy so the same recipe can carry different depths when
			// reached along different paths; consolidation keeps the
			// deepest sighting.
			sighting := *dep
			sighting.Depth = depth
			*edge.out = append(*edge.out, &sighting)

			inChain[name] = true
			err = r.walk(&sighting, depth+1, rawDeps, rawMkdeps, append(chain, name), inChain)
			delete(inChain, name)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// consolidate removes duplicates (keeping the greatest depth observed)
// and sorts by descending depth.
func consolidate(raw []*recipe.Package) []*recipe.Package {
	best := make(map[string]*recipe.Package)
	var order []string
	for _, p := range raw {
		cur, ok := best[p.Name]
		if !ok {
			best[p.Name] = p
			order = append(order, p.Name)
			continue
		}
		if p.Depth > cur.Depth {
			best[p.Name] = p
		}
	}

	out := make([]*recipe.Package, 0, len(order))
	for _, name := range order {
		out = append(out, best[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Depth > out[j].Depth
	})
	return out
}

// Layers slices a descending-depth list into runs of equal depth,
// deepest first. Builds and installs are driven one layer at a time.
func Layers(packs []*recipe.Package) [][]*recipe.Package {
	var layers [][]*recipe.Package
	start := 0
	for i := 1; i <= len(packs); i++ {
		if i == len(packs) || packs[i].Depth != packs[start].Depth {
			layers = append(layers, packs[start:i])
			start = i
		}
	}
	return layers
}

// sortedKeys returns the table's keys in sorted order so traversal and
// error chains are deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
