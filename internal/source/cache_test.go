package source

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcpm/arc/internal/recipe"
)

func pkgWithSources(dir string, sources ...string) *recipe.Package {
	return &recipe.Package{
		Name: "pkg",
		Dir:  dir,
		Manifest: recipe.Manifest{
			Meta: recipe.Meta{Version: "1.0", Sources: sources},
		},
	}
}

func TestFetchLocalSource(t *testing.T) {
	recipeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(recipeDir, "patch.diff"), []byte("diff"), 0644))

	cacheDir := t.TempDir()
	c := NewCache(cacheDir)
	paths, err := c.Fetch(pkgWithSources(recipeDir, "patch.diff"), false)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(cacheDir, "patch.diff")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	require.Equal(t, "diff", string(data))
}

func TestFetchKeepsTarMarker(t *testing.T) {
	recipeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(recipeDir, "vendor.tar.gz"), []byte("blob"), 0644))

	cacheDir := t.TempDir()
	c := NewCache(cacheDir)
	paths, err := c.Fetch(pkgWithSources(recipeDir, "tar+vendor.tar.gz"), false)
	require.NoError(t, err)
	require.Equal(t, []string{TarMarker + filepath.Join(cacheDir, "vendor.tar.gz")}, paths)

	// The cached file itself carries no marker.
	_, err = os.Stat(filepath.Join(cacheDir, "vendor.tar.gz"))
	require.NoError(t, err)
}

func TestFetchHTTPDownload(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits++
		}
		w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	c := NewCache(cacheDir)
	p := pkgWithSources(t.TempDir(), srv.URL+"/hello-1.0.tar.gz")

	paths, err := c.Fetch(p, false)
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	data, err := os.ReadFile(filepath.Join(cacheDir, "hello-1.0.tar.gz"))
	require.NoError(t, err)
	require.Equal(t, "archive-bytes", string(data))
	require.Equal(t, []string{filepath.Join(cacheDir, "hello-1.0.tar.gz")}, paths)
}

func TestFetchCachedIsIdempotent(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits++
		}
		w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir())
	p := pkgWithSources(t.TempDir(), srv.URL+"/hello-1.0.tar.gz")

	_, err := c.Fetch(p, false)
	require.NoError(t, err)
	_, err = c.Fetch(p, false)
	require.NoError(t, err)
	require.Equal(t, 1, hits, "no network traffic after the first success")
}

func TestFetchForceRedownloads(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits++
		}
		w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	c := NewCache(t.TempDir())
	p := pkgWithSources(t.TempDir(), srv.URL+"/hello-1.0.tar.gz")

	_, err := c.Fetch(p, true)
	require.NoError(t, err)
	_, err = c.Fetch(p, true)
	require.NoError(t, err)
	require.Equal(t, 2, hits)
}

func TestFetchFollowsRedirect(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved/hello-1.0.tar.gz" {
			w.Write([]byte("relocated"))
			return
		}
		http.Redirect(w, r, srv.URL+"/moved/hello-1.0.tar.gz", http.StatusFound)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	c := NewCache(cacheDir)
	p := pkgWithSources(t.TempDir(), srv.URL+"/hello-1.0.tar.gz")

	_, err := c.Fetch(p, false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cacheDir, "hello-1.0.tar.gz"))
	require.NoError(t, err)
	require.Equal(t, "relocated", string(data))
}

func TestFetchFailureCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewCache(t.TempDir())
	p := pkgWithSources(t.TempDir(), srv.URL+"/gone-1.0.tar.gz")

	_, err := c.Fetch(p, false)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusNotFound, fe.Status)
	require.Equal(t, "Not Found", fe.Reason)
}

func TestFetchGitUnsupported(t *testing.T) {
	c := NewCache(t.TempDir())
	p := pkgWithSources(t.TempDir(), "git+https://example.test/repo")

	_, err := c.Fetch(p, false)
	var ue *UnsupportedSchemeError
	require.ErrorAs(t, err, &ue)
}

func TestFetchBasenameCollisionOverwrites(t *testing.T) {
	recipeDir := t.TempDir()
	sub := filepath.Join(recipeDir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(recipeDir, "data.bin"), []byte("first"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "data.bin"), []byte("second"), 0644))

	cacheDir := t.TempDir()
	c := NewCache(cacheDir)
	paths, err := c.Fetch(pkgWithSources(recipeDir, "data.bin", "sub/data.bin"), true)
	require.NoError(t, err)
	require.Equal(t, paths[0], paths[1], "both sources share one cache entry")

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	require.Equal(t, "second", string(data), "the later download wins")
}
