// Package recipe locates and loads package recipes. A recipe is a
// directory named after the package, holding a declarative package.toml
// and an executable build script.
package recipe

import (
	"path/filepath"
)

// ManifestName is the manifest file inside every recipe directory.
const ManifestName = "package.toml"

// Manifest mirrors package.toml. Unknown keys are tolerated.
type Manifest struct {
	Meta     Meta              `toml:"meta"`
	Deps     map[string]string `toml:"deps"`
	MkDeps   map[string]string `toml:"mkdeps"`
	Provides map[string]string `toml:"provides"`
}

// Meta is the [meta] section.
type Meta struct {
	Version    string   `toml:"version"`
	Maintainer string   `toml:"maintainer"`
	Sources    []string `toml:"sources"`
	Checksums  []string `toml:"checksums"`

	// Strip overrides the global strip default when set.
	Strip *bool `toml:"strip"`
}

// Package is a loaded recipe plus resolver state.
type Package struct {
	Name     string
	Manifest Manifest
	Dir      string // resolved recipe directory

	// Depth is the layer assigned during resolution. Packages at a
	// greater depth are built and installed first. Always >= 1 for
	// resolved dependencies.
	Depth int

	// Sources holds local cache paths once fetched, in manifest order.
	// Entries for preserved tarballs keep their "tar+" marker.
	Sources []string
}

// Version returns the recipe version string.
func (p *Package) Version() string {
	return p.Manifest.Meta.Version
}

// ID returns the name@version identifier used for manifests and
// binary tarballs.
func (p *Package) ID() string {
	return p.Name + "@" + p.Manifest.Meta.Version
}

// BuildScript returns the path of the recipe's build script.
func (p *Package) BuildScript() string {
	return filepath.Join(p.Dir, "build")
}
