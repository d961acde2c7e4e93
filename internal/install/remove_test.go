package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeInstall lays tracked files under root and writes a matching
// manifest in walk order (parents before children).
func fakeInstall(t *testing.T, s *Store, root, id string, rel ...string) {
	t.Helper()
	var lines []string
	seen := map[string]bool{}
	for _, r := range rel {
		full := filepath.Join(root, r)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(id), 0644))

		// Record every ancestor directory, then the file.
		dir := filepath.Dir(full)
		var parents []string
		for dir != root {
			parents = append([]string{dir}, parents...)
			dir = filepath.Dir(dir)
		}
		for _, p := range parents {
			if !seen[p] {
				seen[p] = true
				lines = append(lines, p)
			}
		}
		lines = append(lines, full)
	}
	writeManifest(t, s, id, lines...)
}

func TestRemoveDeletesFilesAndEmptyDirs(t *testing.T) {
	root := t.TempDir()
	s := testStore(t)
	fakeInstall(t, s, root, "hello@1.0", "usr/bin/hello", "usr/share/doc/hello.txt")

	r := NewRemover(s)
	require.NoError(t, r.Remove([]string{"hello"}))

	_, err := os.Stat(filepath.Join(root, "usr"))
	require.True(t, os.IsNotExist(err), "empty directory tree should be gone")

	_, err = os.Stat(s.ManifestPath("hello@1.0"))
	require.True(t, os.IsNotExist(err))
}

func TestRemoveLeavesSharedDirectoriesAndForeignFiles(t *testing.T) {
	root := t.TempDir()
	s := testStore(t)
	fakeInstall(t, s, root, "a@1.0", "usr/bin/a")
	fakeInstall(t, s, root, "b@1.0", "usr/bin/b")

	r := NewRemover(s)
	require.NoError(t, r.Remove([]string{"a"}))

	_, err := os.Stat(filepath.Join(root, "usr", "bin", "a"))
	require.True(t, os.IsNotExist(err))

	// b's file and the shared directories stay.
	_, err = os.Stat(filepath.Join(root, "usr", "bin", "b"))
	require.NoError(t, err)
}

func TestRemoveLeavesFilesOwnedByAnotherPackage(t *testing.T) {
	root := t.TempDir()
	s := testStore(t)
	fakeInstall(t, s, root, "old@1.0", "usr/bin/tool")

	// A second package has taken the file over.
	writeManifest(t, s, "new@2.0", filepath.Join(root, "usr/bin/tool"))

	r := NewRemover(s)
	require.NoError(t, r.Remove([]string{"old"}))

	_, err := os.Stat(filepath.Join(root, "usr", "bin", "tool"))
	require.NoError(t, err, "file now owned by new@2.0 must survive")
	_, err = os.Stat(s.ManifestPath("old@1.0"))
	require.True(t, os.IsNotExist(err))
}

func TestRemoveRefusesProvidesStub(t *testing.T) {
	root := t.TempDir()
	s := testStore(t)
	fakeInstall(t, s, root, "gcc@14.0", "usr/bin/gcc")
	writeManifest(t, s, "cc@14.0", "-> gcc@14.0")

	r := NewRemover(s)
	err := r.Remove([]string{"cc"})

	var se *StubError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "cc", se.Alias)
	require.Equal(t, "gcc@14.0", se.Target)

	// Nothing was touched.
	_, statErr := os.Stat(filepath.Join(root, "usr", "bin", "gcc"))
	require.NoError(t, statErr)
}

func TestRemoveProviderDropsItsStubs(t *testing.T) {
	root := t.TempDir()
	s := testStore(t)
	fakeInstall(t, s, root, "gcc@14.0", "usr/bin/gcc")
	writeManifest(t, s, "cc@14.0", "-> gcc@14.0")

	r := NewRemover(s)
	require.NoError(t, r.Remove([]string{"gcc"}))

	_, err := os.Stat(s.ManifestPath("gcc@14.0"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.ManifestPath("cc@14.0"))
	require.True(t, os.IsNotExist(err))
}

func TestRemoveSymlinkEntryDoesNotTouchTarget(t *testing.T) {
	root := t.TempDir()
	s := testStore(t)

	target := filepath.Join(root, "real")
	require.NoError(t, os.WriteFile(target, []byte("keep me"), 0644))
	link := filepath.Join(root, "alias")
	require.NoError(t, os.Symlink(target, link))

	writeManifest(t, s, "linker@1.0", link)

	r := NewRemover(s)
	require.NoError(t, r.Remove([]string{"linker"}))

	_, err := os.Lstat(link)
	require.True(t, os.IsNotExist(err), "the symlink itself is removed")
	_, err = os.Stat(target)
	require.NoError(t, err, "the symlink target is untouched")
}

func TestRemoveNotInstalled(t *testing.T) {
	s := testStore(t)
	err := NewRemover(s).Remove([]string{"ghost"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not installed")
}
