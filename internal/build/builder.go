// Package build turns fetched sources into installable binary
// tarballs. For each package it stages sources into a scratch tree,
// runs the recipe's build script against a destdir, strips binaries,
// writes the file manifest, and emits a gzip-compressed tarball.
package build

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arcpm/arc/internal/config"
	"github.com/arcpm/arc/internal/log"
	"github.com/arcpm/arc/internal/progress"
	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/source"
	"github.com/arcpm/arc/internal/ui"
)

// Builder executes recipe build scripts and packages destdirs.
type Builder struct {
	cfg     *config.Config
	verbose bool
	stdout  io.Writer
	logger  log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithVerbose tees build script output to the invoker's stdout in
// addition to the log file.
func WithVerbose(v bool) Option {
	return func(b *Builder) { b.verbose = v }
}

// WithOutput overrides the verbose tee target, for tests.
func WithOutput(w io.Writer) Option {
	return func(b *Builder) { b.stdout = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New creates a builder.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		stdout: os.Stdout,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the pipeline for each package in input order.
func (b *Builder) Build(packs []*recipe.Package) error {
	for i, p := range packs {
		if err := b.buildOne(p, i+1, len(packs)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildOne(p *recipe.Package, idx, total int) error {
	ui.Info("%s Building package (%d/%d)", ui.Accent(p.Name), idx, total)
	plog := log.Pkg(b.logger, p.Name)

	root := b.cfg.BuildRoot(p.Name)
	src := b.cfg.SrcDir(p.Name)
	dest := b.cfg.DestDir(p.Name)
	for _, dir := range []string{src, dest} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("couldn't create directory %s: %w", dir, err)
		}
	}

	ui.Info("%s Extracting sources", ui.Accent(p.Name))
	if err := stageSources(p.Sources, src); err != nil {
		return err
	}

	ui.Info("%s Running build script", ui.Accent(p.Name))
	logPath := filepath.Join(root, "log.txt")
	plog.Debug("invoking build script", log.KeyCommand, p.BuildScript(), "dest", dest)
	if err := b.runScript(p, src, dest, logPath); err != nil {
		return err
	}
	ui.Info("%s Successfully built package", ui.Accent(p.Name))

	if b.stripEnabled(p) {
		stripTree(dest, plog)
	}

	ui.Info("%s Generating manifest", ui.Accent(p.Name))
	if err := writeManifests(dest, b.cfg.InstalledDir, p); err != nil {
		return err
	}

	ui.Info("%s Creating tarball", ui.Accent(p.Name))
	if err := os.MkdirAll(b.cfg.BinDir, 0755); err != nil {
		return fmt.Errorf("couldn't create directory %s: %w", b.cfg.BinDir, err)
	}
	if err := CreateTarGz(dest, b.cfg.BinFile(p.Name, p.Version())); err != nil {
		return err
	}

	return os.RemoveAll(root)
}

// stageSources places every fetched source into the src scratch
// directory: tar+ entries and plain files are copied by basename,
// tarballs are extracted with the leading path component stripped.
func stageSources(sources []string, src string) error {
	for _, file := range sources {
		switch {
		case strings.HasPrefix(file, source.TarMarker):
			file = strings.TrimPrefix(file, source.TarMarker)
			if err := copyInto(file, src); err != nil {
				return err
			}
		case strings.Contains(filepath.Base(file), ".tar"):
			if err := Extract(file, src, 1); err != nil {
				return err
			}
		default:
			if err := copyInto(file, src); err != nil {
				return err
			}
		}
	}
	return nil
}

// runScript invokes the recipe build script with the destdir and
// version as arguments, working directory set to the source tree. Both
// output streams are captured to the log file; in verbose mode each
// stream is additionally teed to stdout by its own goroutine, and the
// parent joins both before reaping the child.
func (b *Builder) runScript(p *recipe.Package, src, dest, logPath string) error {
	script, err := filepath.EvalSymlinks(p.BuildScript())
	if err != nil {
		return fmt.Errorf("couldn't canonicalize path %s: %w", p.BuildScript(), err)
	}
	script, err = filepath.Abs(script)
	if err != nil {
		return fmt.Errorf("couldn't canonicalize path %s: %w", p.BuildScript(), err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("couldn't create file %s: %w", logPath, err)
	}
	defer logFile.Close()

	cmd := exec.Command(script, dest, p.Version())
	cmd.Dir = src

	if !b.verbose {
		cmd.Stdout = logFile
		cmd.Stderr = logFile

		// The script can run for a long time with all output going to
		// the log; tick a spinner so the terminal doesn't look wedged.
		spin := progress.NewSpinner(nil)
		spin.Start(fmt.Sprintf("%s build running (log: %s)", p.Name, logPath))
		err := cmd.Run()
		spin.Stop()
		if err != nil {
			return &BuildError{Name: p.Name, Log: logPath, Err: err}
		}
		return nil
	}

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("couldn't capture output of %s: %w", script, err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("couldn't capture output of %s: %w", script, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("couldn't execute %s: %w", script, err)
	}

	var wg sync.WaitGroup
	teeErrs := make([]error, 2)
	for i, pipe := range []io.Reader{outPipe, errPipe} {
		wg.Add(1)
		go func(i int, pipe io.Reader) {
			defer wg.Done()
			teeErrs[i] = tee(pipe, logFile, b.stdout)
		}(i, pipe)
	}
	wg.Wait()

	runErr := cmd.Wait()
	for _, terr := range teeErrs {
		if terr != nil {
			return fmt.Errorf("couldn't tee output of build: %w", terr)
		}
	}
	if runErr != nil {
		return &BuildError{Name: p.Name, Log: logPath, Err: runErr}
	}
	return nil
}

// stripEnabled resolves the strip flag: the recipe's meta.strip wins
// when set, the configuration default otherwise.
func (b *Builder) stripEnabled(p *recipe.Package) bool {
	if p.Manifest.Meta.Strip != nil {
		return *p.Manifest.Meta.Strip
	}
	return b.cfg.Strip
}

// writeManifests creates the package's installed manifest inside the
// destdir, plus one stub manifest per provides entry. The manifest
// files are created before the walk so they list themselves; content is
// filled in afterwards.
func writeManifests(dest, installedDir string, p *recipe.Package) error {
	manifestDir := filepath.Join(dest, installedDir)
	if err := os.MkdirAll(manifestDir, 0755); err != nil {
		return fmt.Errorf("couldn't create directory %s: %w", manifestDir, err)
	}

	manifestPath := filepath.Join(manifestDir, p.ID())
	if err := os.WriteFile(manifestPath, nil, 0644); err != nil {
		return fmt.Errorf("couldn't create file %s: %w", manifestPath, err)
	}

	// Provides stubs redirect ownership queries to this package.
	for _, alias := range sortedKeys(p.Manifest.Provides) {
		stubPath := filepath.Join(manifestDir, alias+"@"+p.Manifest.Provides[alias])
		stub := fmt.Sprintf("-> %s\n", p.ID())
		if err := os.WriteFile(stubPath, []byte(stub), 0644); err != nil {
			return fmt.Errorf("couldn't create file %s: %w", stubPath, err)
		}
	}

	var lines []string
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dest {
			return nil
		}
		lines = append(lines, strings.TrimPrefix(path, dest))
		return nil
	})
	if err != nil {
		return fmt.Errorf("couldn't walk %s: %w", dest, err)
	}

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(manifestPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("couldn't write to file %s: %w", manifestPath, err)
	}
	return nil
}

// copyInto copies a file into dir under its basename.
func copyInto(file, dir string) error {
	in, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("couldn't copy %s to build dir: %w", file, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("couldn't copy %s to build dir: %w", file, err)
	}

	dest := filepath.Join(dir, filepath.Base(file))
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("couldn't copy %s to build dir: %w", file, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("couldn't copy %s to build dir: %w", file, err)
	}
	return out.Close()
}

// sortedKeys returns map keys in sorted order for deterministic output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
