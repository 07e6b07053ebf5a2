package installer

import "fmt"

// Result accumulates everything one install run did for a requested
// module, including the requirements installed along the way. Errors
// from one stage never stop the accounting of the others.
type Result struct {
	Module  string
	Version string
	Success bool

	// InstalledFiles and SkippedFiles hold project-relative paths.
	InstalledFiles []string
	SkippedFiles   []string
	UpdatedFiles   []string

	InstalledDeps []string
	Registered    []string

	Warnings []string
	Errors   []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// errorf records an error and marks the run failed.
func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Success = false
}
