package build

import "fmt"

// BuildError reports a build script that exited non-zero. The captured
// log stays on disk at Log for inspection.
type BuildError struct {
	Name string
	Log  string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("couldn't build package %s (see %s)", e.Name, e.Log)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
