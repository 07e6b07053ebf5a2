package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eastgold15/Monolith/internal/registry"
)

// ignoreDirs are common directories to skip during app discovery.
var ignoreDirs = []string{
	"node_modules", "vendor", "dist", "build", "bin", "tmp",
}

// DiscoverApps scans root for application directories: a go.mod marks a
// backend app, a package.json marks a frontend app. The project root
// itself counts (Path "."), and discovery does not descend into an app
// once found. Results follow lexical walk order, so repeated runs agree.
func DiscoverApps(root string) ([]App, error) {
	var apps []App
	seen := make(map[string]bool)

	appName := func(rel string) string {
		name := filepath.Base(rel)
		if rel == "." {
			name = filepath.Base(root)
		}
		if seen[name] {
			name = filepath.ToSlash(rel)
		}
		seen[name] = true
		return name
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		name := d.Name()
		if path != root {
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			for _, ignore := range ignoreDirs {
				if name == ignore {
					return filepath.SkipDir
				}
			}
		}

		kind, ok := appKind(path)
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		apps = append(apps, App{
			Name: appName(rel),
			Kind: kind,
			Path: filepath.ToSlash(rel),
		})

		// Apps do not nest; the root may still hold tooling manifests,
		// so keep walking below it.
		if path != root {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// appKind inspects a directory's marker files. A go.mod wins over a
// package.json, since Go services often carry JS tooling assets.
func appKind(dir string) (registry.Kind, bool) {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return registry.KindBackend, true
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return registry.KindFrontend, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
