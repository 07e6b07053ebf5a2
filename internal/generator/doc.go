// Package generator provides validated file operations and template
// rendering for everything monolith writes to disk.
//
// # Features
//
//   - Operations that validate before they execute
//   - Two-phase execution: all operations validate, then all run
//   - Skip-if-exists writes that never clobber user files
//   - Template rendering with helper functions and caching
//
// # Operations
//
// Build a list of operations, then execute them together:
//
//	ops := []generator.Operation{
//	    &generator.WriteFileOp{Path: "monolith.json", Content: data, Mode: 0644},
//	}
//
//	if err := generator.Execute(ctx, ops, generator.ExecuteOptions{}); err != nil {
//	    return err
//	}
//
// Validation runs for every operation before anything is written, so a
// conflict in the last file stops the first from being created.
package generator
