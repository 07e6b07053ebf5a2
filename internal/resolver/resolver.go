// Package resolver computes the transitive requirements of a module
// against a loaded registry. Resolution collects every missing and
// circular requirement instead of stopping at the first problem, so the
// caller can show the complete picture in one pass.
package resolver

import (
	"fmt"
	"strings"

	"github.com/eastgold15/Monolith/internal/registry"
)

// Resolution is the outcome of resolving one module's requires graph.
//
// Satisfied lists every module to install, requirements before their
// dependents with the requested module last. Missing lists requirements
// absent from the registry. Circular lists modules at which a require
// cycle was detected.
type Resolution struct {
	Root      string
	Satisfied []string
	Missing   []string
	Circular  []string
}

// OK reports whether the graph is complete and acyclic.
func (r *Resolution) OK() bool {
	return len(r.Missing) == 0 && len(r.Circular) == 0
}

// Err converts a failed resolution into a ResolutionError, or nil when
// the resolution is clean.
func (r *Resolution) Err() error {
	if r.OK() {
		return nil
	}
	return &ResolutionError{Module: r.Root, Missing: r.Missing, Circular: r.Circular}
}

// ResolutionError is fatal: the installer refuses to materialize any
// file when requirements are missing or cyclic.
type ResolutionError struct {
	Module   string
	Missing  []string
	Circular []string
}

func (e *ResolutionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing dependency: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Circular) > 0 {
		parts = append(parts, "circular dependency: "+strings.Join(e.Circular, ", "))
	}
	return fmt.Sprintf("cannot install %s: %s", e.Module, strings.Join(parts, "; "))
}

// Resolve walks the requires edges of name depth-first, carrying the
// current path for cycle detection. A node already on the path is
// recorded in Circular and that branch stops; a node absent from the
// registry is recorded in Missing; anything else is expanded once, with
// a global visited set preventing re-expansion via other paths.
// Traversal is bounded by registry size even on cyclic graphs, and
// ordering is deterministic, following the declaration order of each
// requires list.
func Resolve(reg *registry.Registry, name string) *Resolution {
	res := &Resolution{Root: name}
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	missing := make(map[string]bool)
	circular := make(map[string]bool)

	var walk func(current string)
	walk = func(current string) {
		if onPath[current] {
			if !circular[current] {
				circular[current] = true
				res.Circular = append(res.Circular, current)
			}
			return
		}
		if visited[current] {
			return
		}

		mod, ok := reg.Get(current)
		if !ok {
			if !missing[current] {
				missing[current] = true
				res.Missing = append(res.Missing, current)
			}
			return
		}

		visited[current] = true
		onPath[current] = true
		for _, req := range mod.Requires {
			walk(req)
		}
		onPath[current] = false

		// Post-order append puts requirements before their dependents.
		res.Satisfied = append(res.Satisfied, mod.Name)
	}

	walk(name)
	return res
}
