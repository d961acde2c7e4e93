// Package source implements the download cache: acquisition and
// BLAKE3 verification of recipe source files.
//
// Cache entries are keyed by URL basename: two sources whose final path
// segment matches share one cache entry, and the later download
// overwrites the earlier. Recipes must disambiguate by URL shape when
// that matters.
package source

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arcpm/arc/internal/httputil"
	"github.com/arcpm/arc/internal/log"
	"github.com/arcpm/arc/internal/progress"
	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/ui"
)

// TarMarker prefixes sources whose archive must be preserved rather
// than extracted. Fetch keeps the marker on returned paths so the
// builder stages them verbatim.
const TarMarker = "tar+"

// Cache downloads and verifies source files into a single directory.
type Cache struct {
	dir    string
	client *http.Client
	logger log.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClient overrides the HTTP client, for tests.
func WithClient(c *http.Client) Option {
	return func(s *Cache) { s.client = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l log.Logger) Option {
	return func(s *Cache) { s.logger = l }
}

// NewCache creates a source cache rooted at dir.
func NewCache(dir string, opts ...Option) *Cache {
	c := &Cache{
		dir:    dir,
		client: httputil.New(httputil.DefaultMaxRedirects),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch acquires every source of pkg, returning local cache paths in
// manifest order. Paths for tar+ sources keep the marker. force
// re-downloads entries already present in the cache.
func (c *Cache) Fetch(pkg *recipe.Package, force bool) ([]string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", c.dir, err)
	}

	plog := log.Pkg(c.logger, pkg.Name)
	sources := pkg.Manifest.Meta.Sources
	paths := make([]string, 0, len(sources))
	for i, raw := range sources {
		url := raw
		preserved := false
		if strings.HasPrefix(url, TarMarker) {
			url = strings.TrimPrefix(url, TarMarker)
			preserved = true
		}

		// The cache entry is the last path segment of the URL.
		local := filepath.Join(c.dir, path.Base(url))
		if preserved {
			paths = append(paths, TarMarker+local)
		} else {
			paths = append(paths, local)
		}

		if !force {
			if _, err := os.Stat(local); err == nil {
				ui.InfoIdent("%s %s already downloaded, skipping", ui.Accent(pkg.Name), url)
				plog.Debug("cache hit", log.KeySource, url)
				continue
			}
		}

		switch {
		case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
			ui.InfoIdent("%s downloading %s (%d/%d)", ui.Accent(pkg.Name), url, i+1, len(sources))
			plog.Debug("fetching remote source", log.KeySource, url, "dest", local)
			if err := c.download(url, local); err != nil {
				return nil, err
			}
		case strings.HasPrefix(url, "git+"):
			return nil, &UnsupportedSchemeError{URL: url}
		default:
			// A path relative to the recipe directory, copied verbatim.
			if err := copyFile(filepath.Join(pkg.Dir, url), local); err != nil {
				return nil, fmt.Errorf("could not copy local source %s/%s: %w", pkg.Name, url, err)
			}
		}
	}

	return paths, nil
}

// download streams url into dest. The content length is probed with a
// best-effort HEAD first; without it the progress display degrades to a
// byte counter. Redirects are followed by the client, capped in depth.
func (c *Cache) download(url, dest string) error {
	length := int64(-1)
	if head, err := c.client.Head(url); err == nil {
		if head.ContentLength > 0 {
			length = head.ContentLength
		}
		head.Body.Close()
	}

	resp, err := c.client.Get(url)
	if err != nil {
		return fmt.Errorf("couldn't connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{URL: url, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("couldn't create file %s: %w", dest, err)
	}
	defer out.Close()

	if progress.ShouldShowProgress() {
		pw := progress.NewWriter(out, length, os.Stderr)
		defer pw.Finish()
		if _, err := io.Copy(pw, resp.Body); err != nil {
			return fmt.Errorf("couldn't save %s to %s: %w", url, dest, err)
		}
	} else {
		if _, err := io.Copy(out, resp.Body); err != nil {
			return fmt.Errorf("couldn't save %s to %s: %w", url, dest, err)
		}
	}

	return out.Close()
}

// copyFile copies src to dest, truncating any existing entry.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
