// Package config loads arc's configuration file and derives the cache
// and system directory layout used by every subsystem.
//
// Configuration is read once at startup and threaded through the call
// graph as an explicit value; construction failures abort before any
// command runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// defaultInstalledDir is the system directory holding one plain-text
// manifest per installed name@version.
const defaultInstalledDir = "/var/cache/arc/installed"

// file mirrors ~/.config/arc/config.toml. Unknown keys are tolerated.
type file struct {
	Path          []string `toml:"path"`
	VerboseBuilds bool     `toml:"verbose_builds"`
	Strip         *bool    `toml:"strip"`
	SuCmd         string   `toml:"su_cmd"`
	CacheDir      string   `toml:"cache_dir"`
}

// Config is the resolved process configuration.
type Config struct {
	Path          []string // recipe search directories, in order
	VerboseBuilds bool     // tee build output to stdout without -v
	Strip         bool     // default for the recipe's optional meta.strip
	SuCmd         string   // preferred elevation command; empty = auto-detect

	CacheDir     string // per-user cache root, default ~/.cache/arc
	DownloadDir  string // <cache>/dl
	BuildDir     string // <cache>/build
	BinDir       string // <cache>/bin
	TmpDir       string // <cache>/tmp (install staging)
	InstalledDir string // installed-manifest directory
}

// Load reads the configuration file and resolves the directory layout.
// $HOME must be set; a missing config file yields defaults.
func Load() (*Config, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return nil, fmt.Errorf("$HOME is not set")
	}
	return LoadFrom(filepath.Join(home, ".config", "arc", "config.toml"), home)
}

// LoadFrom reads the configuration from an explicit path, for tests.
func LoadFrom(path, home string) (*Config, error) {
	var f file
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cache := f.CacheDir
	if cache == "" {
		cache = filepath.Join(home, ".cache", "arc")
	}
	strip := true
	if f.Strip != nil {
		strip = *f.Strip
	}

	return &Config{
		Path:          f.Path,
		VerboseBuilds: f.VerboseBuilds,
		Strip:         strip,
		SuCmd:         f.SuCmd,
		CacheDir:      cache,
		DownloadDir:   filepath.Join(cache, "dl"),
		BuildDir:      filepath.Join(cache, "build"),
		BinDir:        filepath.Join(cache, "bin"),
		TmpDir:        filepath.Join(cache, "tmp"),
		InstalledDir:  defaultInstalledDir,
	}, nil
}

// EnsureDirectories creates the cache tree and the installed-manifest
// directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.CacheDir,
		c.DownloadDir,
		c.BuildDir,
		c.BinDir,
		c.TmpDir,
		c.InstalledDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// BuildRoot returns the per-build scratch directory for a package.
func (c *Config) BuildRoot(name string) string {
	return filepath.Join(c.BuildDir, name)
}

// SrcDir returns the source scratch directory for a package build.
func (c *Config) SrcDir(name string) string {
	return filepath.Join(c.BuildDir, name, "src")
}

// DestDir returns the destdir a build script populates.
func (c *Config) DestDir(name string) string {
	return filepath.Join(c.BuildDir, name, "dest")
}

// BinFile returns the binary tarball path for name@version.
func (c *Config) BinFile(name, version string) string {
	return filepath.Join(c.BinDir, fmt.Sprintf("%s@%s.tar.gz", name, version))
}

// StagingDir returns the install staging area for a package.
func (c *Config) StagingDir(name string) string {
	return filepath.Join(c.TmpDir, name)
}
