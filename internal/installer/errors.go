package installer

import "fmt"

// SourceReadError reports a module template that could not be read from
// any configured source. The sibling files of the module keep going.
type SourceReadError struct {
	Module string
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read template %s for module %s: %v", e.Source, e.Module, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// WriteError reports a target file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// PackageInstallError reports one dependency the package manager could
// not install. The remaining dependencies still install; the run is
// marked failed so a rerun can repair it.
type PackageInstallError struct {
	Package string
	Manager Manager
	Err     error
}

func (e *PackageInstallError) Error() string {
	return fmt.Sprintf("failed to install %s via %s: %v", e.Package, e.Manager, e.Err)
}

func (e *PackageInstallError) Unwrap() error { return e.Err }

// HookError reports an afterInstall command that exited non-zero. Hooks
// are advisory, so this surfaces as a warning.
type HookError struct {
	Module  string
	Command string
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q for module %s failed: %v", e.Command, e.Module, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
