package install

import (
	"errors"
	"fmt"
)

// ErrNoElevation is returned when root is required but no elevation
// command could be found.
var ErrNoElevation = errors.New("couldn't find a command to elevate privileges")

// StubError reports an attempt to remove a provides alias instead of
// the package that provides it.
type StubError struct {
	Alias  string
	Target string
}

func (e *StubError) Error() string {
	return fmt.Sprintf("%s is provided by %s; remove %s instead", e.Alias, e.Target, e.Target)
}
