package build

import (
	"io/fs"
	"os/exec"
	"path/filepath"

	"github.com/arcpm/arc/internal/log"
)

// stripTool is the external binary run over built files.
var stripTool = "strip"

// stripTree runs the strip tool over every regular file under dest.
// Individual failures are ignored: most files are not binaries. This
// pass never fails the build.
func stripTree(dest string, logger log.Logger) {
	_ = filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if err := exec.Command(stripTool, path).Run(); err != nil {
			logger.Debug("strip skipped file", "path", path, "error", err)
		}
		return nil
	})
}
