// Package exec runs the external commands monolith needs: package manager
// installs and post-install hooks.
//
// # Features
//
//   - Context-aware execution with graceful cancellation
//   - Spinners for long-running commands (package installs)
//   - Quiet mode where only the exit code matters
//   - Line-prefixed streaming for hook output
//   - Helpful errors when a command is not installed
//
// # Usage
//
// Direct execution:
//
//	executor := exec.NewExecutor(nil)
//	err := executor.Run(ctx, "npm", "install", "dayjs@^1.11.0")
//
// Fluent builder:
//
//	err := exec.NewGenericCommand(executor, "go").
//		WithArgs("get", "github.com/jackc/pgx/v5@v5.7.1").
//		WithDir(appDir).
//		WithSpinner("Installing pgx").
//		Run(ctx)
//
// The commandFunc field can be swapped in tests to avoid spawning real
// processes.
package exec
