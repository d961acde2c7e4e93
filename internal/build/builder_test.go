package build

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcpm/arc/internal/config"
	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/source"
)

// testConfig lays out a cache and installed-manifest directory under
// temp roots.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cache := t.TempDir()
	return &config.Config{
		Strip:        false,
		CacheDir:     cache,
		DownloadDir:  filepath.Join(cache, "dl"),
		BuildDir:     filepath.Join(cache, "build"),
		BinDir:       filepath.Join(cache, "bin"),
		TmpDir:       filepath.Join(cache, "tmp"),
		InstalledDir: filepath.Join(t.TempDir(), "installed"),
	}
}

// testPackage creates a recipe directory with the given build script
// and returns the loaded package.
func testPackage(t *testing.T, name, version, script string, mutate func(*recipe.Manifest)) *recipe.Package {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build"), []byte(script), 0755))

	m := recipe.Manifest{Meta: recipe.Meta{Version: version}}
	if mutate != nil {
		mutate(&m)
	}
	return &recipe.Package{Name: name, Manifest: m, Dir: dir}
}

func TestBuildProducesTarballAndManifest(t *testing.T) {
	cfg := testConfig(t)
	p := testPackage(t, "hello", "1.0", `#!/bin/sh -e
mkdir -p "$1/usr/bin"
printf 'hello %s\n' "$2" > "$1/usr/bin/hello"
ln -s hello "$1/usr/bin/hi"
`, nil)

	b := New(cfg)
	require.NoError(t, b.Build([]*recipe.Package{p}))

	// The scratch tree is gone after a successful build.
	_, err := os.Stat(cfg.BuildRoot("hello"))
	require.True(t, os.IsNotExist(err))

	// The tarball exists and re-extracts to the destdir layout.
	bin := cfg.BinFile("hello", "1.0")
	_, err = os.Stat(bin)
	require.NoError(t, err)

	unpacked := t.TempDir()
	require.NoError(t, Extract(bin, unpacked, 0))

	data, err := os.ReadFile(filepath.Join(unpacked, "usr", "bin", "hello"))
	require.NoError(t, err)
	require.Equal(t, "hello 1.0\n", string(data))

	// The manifest rides inside the tarball at the installed path and
	// lists every entry, destdir prefix stripped, newline-terminated.
	manifest := filepath.Join(unpacked, cfg.InstalledDir, "hello@1.0")
	content, err := os.ReadFile(manifest)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(content), "\n"))

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Contains(t, lines, "/usr/bin/hello")
	require.Contains(t, lines, "/usr/bin/hi")
	require.Contains(t, lines, "/usr/bin")
	require.Contains(t, lines, filepath.Join(cfg.InstalledDir, "hello@1.0"))
	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, "/"), "manifest line %q is not absolute", line)
	}
}

func TestBuildWritesProvidesStubs(t *testing.T) {
	cfg := testConfig(t)
	p := testPackage(t, "gcc", "14.0", "#!/bin/sh -e\nmkdir -p \"$1/usr/bin\"\n: > \"$1/usr/bin/gcc\"\n",
		func(m *recipe.Manifest) {
			m.Provides = map[string]string{"cc": "14.0"}
		})

	b := New(cfg)
	require.NoError(t, b.Build([]*recipe.Package{p}))

	unpacked := t.TempDir()
	require.NoError(t, Extract(cfg.BinFile("gcc", "14.0"), unpacked, 0))

	stub, err := os.ReadFile(filepath.Join(unpacked, cfg.InstalledDir, "cc@14.0"))
	require.NoError(t, err)
	require.Equal(t, "-> gcc@14.0\n", string(stub))
}

func TestBuildStagesTarballSources(t *testing.T) {
	cfg := testConfig(t)

	// A real tarball staged both ways: preserved via tar+ and
	// extracted with its leading component stripped.
	srcDir := t.TempDir()
	archive := filepath.Join(srcDir, "vendor-2.0.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"vendor-2.0/":         "",
		"vendor-2.0/data.txt": "payload",
	})
	plain := filepath.Join(srcDir, "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("readme"), 0644))

	p := testPackage(t, "stage", "1.0", `#!/bin/sh -e
test -f vendor-2.0.tar.gz
test -f data.txt
test -f notes.txt
mkdir -p "$1/opt"
: > "$1/opt/done"
`, nil)
	p.Sources = []string{source.TarMarker + archive, archive, plain}

	b := New(cfg)
	require.NoError(t, b.Build([]*recipe.Package{p}))
}

func TestBuildFailureKeepsLog(t *testing.T) {
	cfg := testConfig(t)
	p := testPackage(t, "broken", "1.0", "#!/bin/sh\necho doomed\nexit 3\n", nil)

	b := New(cfg)
	err := b.Build([]*recipe.Package{p})

	var be *BuildError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "broken", be.Name)

	data, err := os.ReadFile(be.Log)
	require.NoError(t, err)
	require.Contains(t, string(data), "doomed")
}

func TestBuildVerboseTeesBothStreams(t *testing.T) {
	cfg := testConfig(t)
	p := testPackage(t, "chatty", "1.0", `#!/bin/sh
echo to-stdout
echo to-stderr >&2
exit 1
`, nil)

	var out bytes.Buffer
	b := New(cfg, WithVerbose(true), WithOutput(&out))
	err := b.Build([]*recipe.Package{p})

	var be *BuildError
	require.ErrorAs(t, err, &be)

	// Both streams reach the aggregate output and the log file.
	require.Contains(t, out.String(), "to-stdout")
	require.Contains(t, out.String(), "to-stderr")

	logData, err := os.ReadFile(be.Log)
	require.NoError(t, err)
	require.Contains(t, string(logData), "to-stdout")
	require.Contains(t, string(logData), "to-stderr")
}

func TestStripEnabledResolution(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strip = true
	b := New(cfg)

	yes, no := true, false
	plain := &recipe.Package{Manifest: recipe.Manifest{}}
	disabled := &recipe.Package{Manifest: recipe.Manifest{Meta: recipe.Meta{Strip: &no}}}
	enabled := &recipe.Package{Manifest: recipe.Manifest{Meta: recipe.Meta{Strip: &yes}}}

	require.True(t, b.stripEnabled(plain))
	require.False(t, b.stripEnabled(disabled))

	cfg.Strip = false
	require.False(t, b.stripEnabled(plain))
	require.True(t, b.stripEnabled(enabled))
}
