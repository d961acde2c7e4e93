package source

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/arcpm/arc/internal/ui"
)

// Verify computes BLAKE3 over each fetched file and compares it with
// the positional entry in expected. It fails when a source has no
// corresponding checksum; excess checksums are ignored. name labels the
// package in output and errors.
func Verify(paths, expected []string, name string) error {
	if len(paths) > len(expected) {
		return fmt.Errorf("missing one or more checksums for package %s", name)
	}

	for i, p := range paths {
		p = strings.TrimPrefix(p, TarMarker)
		sum, err := HashFile(p)
		if err != nil {
			return err
		}
		want := strings.Trim(strings.TrimSpace(expected[i]), `"`)

		ui.InfoIdent("%s %s / %s (%s)", ui.Accent(name), shorten(want), shorten(sum), filepath.Base(p))

		if sum != want {
			return &ChecksumError{File: p, Expected: want, Actual: sum}
		}
	}
	return nil
}

// Checksums returns the BLAKE3 digest of each file, tar+ markers
// stripped, in input order. Used by checksum generation.
func Checksums(paths []string) ([]string, error) {
	sums := make([]string, 0, len(paths))
	for _, p := range paths {
		sum, err := HashFile(strings.TrimPrefix(p, TarMarker))
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	return sums, nil
}

// HashFile returns the lowercase hex BLAKE3 digest of the file's
// contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("couldn't read file %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("couldn't read file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// shorten truncates a digest for display.
func shorten(sum string) string {
	if len(sum) > 10 {
		return sum[:10]
	}
	return sum
}
