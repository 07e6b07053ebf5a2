package installer

import (
	"os"
	"path/filepath"

	"github.com/eastgold15/Monolith/internal/registry"
)

// Manager identifies a package manager the installer can drive.
type Manager string

const (
	ManagerGo   Manager = "go"
	ManagerPnpm Manager = "pnpm"
	ManagerYarn Manager = "yarn"
	ManagerNpm  Manager = "npm"
	ManagerBun  Manager = "bun"
)

// lockFiles is the detection order; the first lock file found in the
// target directory decides the manager.
var lockFiles = []struct {
	file    string
	manager Manager
}{
	{"go.mod", ManagerGo},
	{"pnpm-lock.yaml", ManagerPnpm},
	{"yarn.lock", ManagerYarn},
	{"package-lock.json", ManagerNpm},
	{"bun.lockb", ManagerBun},
}

// DetectManager picks the package manager for a directory by its lock
// files, falling back to the project's configured manager, then npm.
func DetectManager(dir, configured string) Manager {
	for _, lf := range lockFiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return lf.manager
		}
	}
	if configured != "" {
		return Manager(configured)
	}
	return ManagerNpm
}

// installArgs builds the argv installing one dependency with this
// manager.
func (m Manager) installArgs(dep registry.Dependency) []string {
	pkg := dep.Name
	if dep.Version != "" {
		pkg += "@" + dep.Version
	}

	switch m {
	case ManagerGo:
		return []string{"go", "get", pkg}
	case ManagerNpm:
		return []string{"npm", "install", pkg}
	default:
		return []string{string(m), "add", pkg}
	}
}
