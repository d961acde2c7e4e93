package install

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arcpm/arc/internal/build"
	"github.com/arcpm/arc/internal/config"
	"github.com/arcpm/arc/internal/log"
	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/ui"
)

// Installer places built packages onto the live filesystem. Each
// package's binary tarball is extracted into a staging area, reconciled
// against the manifests of already-installed packages, and then copied
// into the live root, elevating privileges when the invoking user is
// not root.
type Installer struct {
	cfg       *config.Config
	store     *Store
	assumeYes bool
	prompts   io.Reader
	logger    log.Logger
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithAssumeYes answers every conflict prompt with "keep the new copy"
// and is set by the -y flag.
func WithAssumeYes(yes bool) InstallerOption {
	return func(ins *Installer) { ins.assumeYes = yes }
}

// WithPromptInput overrides the conflict prompt input, for tests.
func WithPromptInput(r io.Reader) InstallerOption {
	return func(ins *Installer) { ins.prompts = r }
}

// WithInstallLogger sets the diagnostic logger.
func WithInstallLogger(l log.Logger) InstallerOption {
	return func(ins *Installer) { ins.logger = l }
}

// NewInstaller creates an installer over the given manifest store.
func NewInstaller(cfg *config.Config, store *Store, opts ...InstallerOption) *Installer {
	ins := &Installer{
		cfg:     cfg,
		store:   store,
		prompts: os.Stdin,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(ins)
	}
	return ins
}

// Install extracts, reconciles, and places each package in input order.
func (ins *Installer) Install(packs []*recipe.Package) error {
	elevator, err := findElevator(ins.cfg.SuCmd)
	if err != nil {
		return err
	}
	if elevator != "" {
		ui.Info("Using %s to become root.", filepath.Base(elevator))
	}

	for i, p := range packs {
		if err := ins.installOne(p, elevator, i+1, len(packs)); err != nil {
			return err
		}
	}
	return nil
}

func (ins *Installer) installOne(p *recipe.Package, elevator string, idx, total int) error {
	stage := ins.cfg.StagingDir(p.Name)
	os.RemoveAll(stage)
	if err := os.MkdirAll(stage, 0755); err != nil {
		return fmt.Errorf("couldn't create directory %s: %w", stage, err)
	}

	bin := ins.cfg.BinFile(p.Name, p.Version())
	if err := build.Extract(bin, stage, 0); err != nil {
		return fmt.Errorf("couldn't extract %s: %w", bin, err)
	}

	if err := ins.reconcile(p, stage, elevator); err != nil {
		return err
	}
	if err := ins.place(stage, elevator); err != nil {
		return err
	}

	if elevator != "" {
		if err := run(elevated(elevator, "rm", "-rf", stage)); err != nil {
			return err
		}
	} else if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("couldn't remove staging tree %s: %w", stage, err)
	}

	ui.Info("Successfully installed %s @ %s (%d/%d)", p.Name, p.Version(), idx, total)
	return nil
}

// reconcile runs the conflict pass over the staged manifest: every path
// already tracked by another package and present as a regular file on
// the live system is either taken over (the other manifest is rewritten
// to drop the path) or yielded (the file is deleted from the staging
// area and from the staged manifest).
func (ins *Installer) reconcile(p *recipe.Package, stage, elevator string) error {
	stagedManifest := filepath.Join(stage, ins.store.Dir(), p.ID())
	lines, err := readManifestLines(stagedManifest)
	if err != nil {
		return err
	}

	owners, err := ins.store.Owners()
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(lines))
	changed := false
	for _, line := range lines {
		owner, tracked := owners[line]
		if !tracked {
			kept = append(kept, line)
			continue
		}
		ownerName, _, _ := splitID(owner)
		if ownerName == p.Name {
			kept = append(kept, line)
			continue
		}
		info, err := os.Lstat(line)
		if err != nil || !info.Mode().IsRegular() {
			kept = append(kept, line)
			continue
		}
		log.Pkg(ins.logger, p.Name).Debug("file conflict", "path", line, "owner", owner)

		if ui.AskFrom(ins.prompts, ui.Output, ins.assumeYes,
			"%s is owned by %s. Overwrite with %s's copy?", line, owner, p.Name) {
			// Ownership transfers: the other package no longer tracks
			// the path, and extraction will overwrite its file.
			if err := ins.disown(owner, line, elevator); err != nil {
				return err
			}
			kept = append(kept, line)
		} else {
			if err := os.Remove(filepath.Join(stage, line)); err != nil {
				return fmt.Errorf("couldn't drop %s from staging: %w", line, err)
			}
			changed = true
		}
	}

	if changed {
		if err := writeManifestLines(stagedManifest, kept); err != nil {
			return err
		}
	}
	return nil
}

// disown rewrites ownerID's live manifest without line. The new content
// is staged unprivileged in the cache, copied next to the live manifest
// with elevation, and renamed into place so the rewrite lands
// atomically.
func (ins *Installer) disown(ownerID, line, elevator string) error {
	lines, err := ins.store.Read(ownerID)
	if err != nil {
		return err
	}
	filtered := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != line {
			filtered = append(filtered, l)
		}
	}

	tmp, err := os.CreateTemp(ins.cfg.TmpDir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("couldn't stage manifest rewrite: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	for _, l := range filtered {
		if _, err := fmt.Fprintln(tmp, l); err != nil {
			tmp.Close()
			return fmt.Errorf("couldn't stage manifest rewrite: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("couldn't stage manifest rewrite: %w", err)
	}

	live := ins.store.ManifestPath(ownerID)
	liveTmp := live + ".tmp"
	if err := run(elevated(elevator, "cp", tmpPath, liveTmp)); err != nil {
		return err
	}
	// Same-directory rename, atomic on POSIX filesystems.
	return run(elevated(elevator, "mv", liveTmp, live))
}

// place copies the staging tree into the live root: ownership is
// reassigned to root, directories are re-created in one idempotent
// pass, then files and symlinks are copied one by one. Two passes keep
// directory creation safe over pre-existing directories.
func (ins *Installer) place(stage, elevator string) error {
	if elevator != "" {
		if err := run(elevated(elevator, "chown", "-R", "0:0", stage)); err != nil {
			return err
		}
	}

	var dirs, entries []string
	err := filepath.WalkDir(stage, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == stage {
			return nil
		}
		target := strings.TrimPrefix(path, stage)
		if d.IsDir() {
			dirs = append(dirs, target)
		} else {
			entries = append(entries, target)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("couldn't walk staging tree %s: %w", stage, err)
	}

	if len(dirs) > 0 {
		argv := append([]string{"mkdir", "-p"}, dirs...)
		if err := run(elevated(elevator, argv...)); err != nil {
			return err
		}
	}
	for _, target := range entries {
		if err := run(elevated(elevator, "cp", "-a", filepath.Join(stage, target), target)); err != nil {
			return err
		}
	}
	return nil
}

// run executes a placement command, surfacing its stderr. Stdin is
// forwarded so elevators can prompt for a password.
func run(cmd *exec.Cmd) error {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s failed: %w", strings.Join(cmd.Args, " "), err)
	}
	return nil
}

// readManifestLines reads a manifest outside the store directory.
func readManifestLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read package manifest at %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// writeManifestLines writes manifest lines, one path per line.
func writeManifestLines(path string, lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("couldn't write to file %s: %w", path, err)
	}
	return nil
}
