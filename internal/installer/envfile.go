package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eastgold15/Monolith/internal/registry"
)

const envHeader = "# Environment variables\n# Added by monolith; existing lines are never modified.\n"

// envResult reports what configureEnv changed.
type envResult struct {
	Added  []string // variables appended to .env
	Manual []string // required variables without defaults
}

// configureEnv appends missing NAME=default lines to .env and
// .env.example in dir. The merge is additive: a variable whose name
// already starts a line is left exactly as the user wrote it, so running
// an install twice yields one line per variable.
func configureEnv(vars []registry.EnvVar, dir string) (envResult, error) {
	var res envResult
	if len(vars) == 0 {
		return res, nil
	}

	for _, v := range vars {
		if v.Required && v.Default == "" {
			res.Manual = append(res.Manual, v.Name)
		}
	}

	added, err := mergeEnvFile(filepath.Join(dir, ".env"), vars)
	if err != nil {
		return res, err
	}
	res.Added = added

	if _, err := mergeEnvFile(filepath.Join(dir, ".env.example"), vars); err != nil {
		return res, err
	}
	return res, nil
}

func mergeEnvFile(path string, vars []registry.EnvVar) ([]string, error) {
	existing := make(map[string]bool)
	var buf []byte

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		buf = data
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "#") {
				continue
			}
			if i := strings.Index(trimmed, "="); i > 0 {
				existing[trimmed[:i]] = true
			}
		}
	case os.IsNotExist(err):
		buf = []byte(envHeader)
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var added []string
	for _, v := range vars {
		if existing[v.Name] {
			continue
		}
		if len(buf) > 0 && !strings.HasSuffix(string(buf), "\n") {
			buf = append(buf, '\n')
		}
		if v.Description != "" {
			buf = append(buf, []byte("# "+v.Description+"\n")...)
		}
		buf = append(buf, []byte(v.Name+"="+v.Default+"\n")...)
		added = append(added, v.Name)
	}

	if len(added) == 0 {
		return nil, nil
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return added, nil
}
