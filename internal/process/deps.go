package process

import (
	"fmt"
	"os/exec"
)

// DependencyError reports a required tool missing from PATH
type DependencyError struct {
	Name string
	Path string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s not found (looked for %q in PATH)", e.Name, e.Path)
}

// Tool names a required executable and the path it is configured at
type Tool struct {
	Name string
	Path string
}

// CheckTools returns one DependencyError per tool that cannot be resolved
func CheckTools(tools ...Tool) []error {
	var errs []error
	for _, t := range tools {
		if _, err := exec.LookPath(t.Path); err != nil {
			errs = append(errs, &DependencyError{Name: t.Name, Path: t.Path})
		}
	}
	return errs
}
