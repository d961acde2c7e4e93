package install

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// suCommands is the probe order when su_cmd is not configured.
var suCommands = []string{"sudo", "doas", "su"}

// suDirs are the locations probed for elevation helpers. PATH is not
// consulted: the install step must not be steered by the invoking
// user's environment.
var suDirs = []string{"/usr/bin", "/bin", "/usr/local/bin"}

// findElevator returns the command used to become root, or "" when the
// current user already is root. A configured su_cmd wins over
// auto-detection.
func findElevator(configured string) (string, error) {
	if os.Geteuid() == 0 {
		return "", nil
	}
	if configured != "" {
		return configured, nil
	}
	for _, cand := range suCommands {
		for _, dir := range suDirs {
			p := filepath.Join(dir, cand)
			if unix.Access(p, unix.X_OK) == nil {
				return p, nil
			}
		}
	}
	return "", ErrNoElevation
}

// elevated builds a command running argv as root. With no elevator the
// argv runs directly (the caller is already root). su takes a single
// shell string, so its arguments are quoted; sudo and doas receive the
// argument vector untouched.
func elevated(elevator string, argv ...string) *exec.Cmd {
	if elevator == "" {
		return exec.Command(argv[0], argv[1:]...)
	}
	if filepath.Base(elevator) == "su" {
		quoted := make([]string, len(argv))
		for i, a := range argv {
			quoted[i] = shellQuote(a)
		}
		return exec.Command(elevator, "-c", strings.Join(quoted, " "))
	}
	return exec.Command(elevator, argv...)
}

// shellQuote single-quotes s for safe embedding in a shell string.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
