package deploy

import (
	"fmt"
	"strings"
)

// UnknownDeployableError reports a selection name the registry does not know.
type UnknownDeployableError struct {
	Name  string
	Known []string
}

func (e *UnknownDeployableError) Error() string {
	return fmt.Sprintf("unknown deployable %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// PushError reports the deployable whose push aborted a deploy.
type PushError struct {
	Name string
	Err  error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push %s: %v", e.Name, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// BuildError reports a failed build step; the device was not touched.
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string { return fmt.Sprintf("build: %v", e.Err) }

func (e *BuildError) Unwrap() error { return e.Err }
