package build

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// isPathWithinDirectory checks that targetPath stays inside basePath.
// Guards against archive entries escaping the extraction directory.
func isPathWithinDirectory(targetPath, basePath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// validateSymlinkTarget rejects symlink entries that would point
// outside the extraction directory.
func validateSymlinkTarget(linkTarget, linkLocation, destPath string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("absolute symlink targets are not allowed: %s -> %s", linkLocation, linkTarget)
	}
	resolved := filepath.Join(filepath.Dir(linkLocation), linkTarget)
	if !isPathWithinDirectory(resolved, destPath) {
		return fmt.Errorf("symlink target escapes extraction directory: %s -> %s", linkLocation, linkTarget)
	}
	return nil
}

// Extract unpacks a tar archive into dest, stripping the given number
// of leading path components from every entry. The compression layer is
// detected from the filename; a name with a bare ".tar" and no known
// compression suffix is read as an uncompressed tar stream.
func Extract(archivePath, dest string, stripComponents int) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archivePath, err)
		}
		defer gzr.Close()
		r = gzr
	case strings.HasSuffix(archivePath, ".tar.xz"), strings.HasSuffix(archivePath, ".txz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archivePath, err)
		}
		r = xzr
	case strings.HasSuffix(archivePath, ".tar.bz2"), strings.HasSuffix(archivePath, ".tbz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(archivePath, ".tar.zst"), strings.HasSuffix(archivePath, ".tzst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archivePath, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(archivePath, ".tar.lz"), strings.HasSuffix(archivePath, ".tlz"):
		lr, err := lzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archivePath, err)
		}
		r = lr
	default:
		r = f
	}

	return extractTar(tar.NewReader(r), dest, stripComponents)
}

// extractTar writes every entry of tr under dest.
func extractTar(tr *tar.Reader, dest string, stripComponents int) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		clean := strings.TrimPrefix(header.Name, "./")
		if clean == "" || clean == "." {
			continue
		}
		parts := strings.Split(clean, "/")
		if len(parts) <= stripComponents {
			continue
		}
		rel := filepath.Join(parts[stripComponents:]...)
		target := filepath.Join(dest, rel)

		if !isPathWithinDirectory(target, dest) {
			return fmt.Errorf("archive entry escapes extraction directory: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("failed to write file %s: %w", target, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to write file %s: %w", target, err)
			}

		case tar.TypeSymlink:
			if err := validateSymlinkTarget(header.Linkname, target, dest); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
		}
	}
	return nil
}
