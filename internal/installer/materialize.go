package installer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eastgold15/Monolith/internal/registry"
)

// Actions a materialization can take.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
	ActionError   = "error"
)

// FileRes is the outcome of materializing one file.
type FileRes struct {
	Path   string // absolute target path
	Action string
	Err    error
}

// materializer writes module template files into app directories. An
// existing target is never overwritten unless overwrite is set; the
// update path sets it only for files whose recorded hash still matches
// the disk.
type materializer struct {
	templates registry.TemplateSource
	project   string
	year      int
}

func (m *materializer) materialize(ctx context.Context, mod *registry.Descriptor, spec registry.FileSpec, dir string, overwrite bool) FileRes {
	target := filepath.Join(dir, filepath.FromSlash(spec.TargetPath))

	if _, err := os.Stat(target); err == nil && !overwrite {
		return FileRes{Path: target, Action: ActionSkipped}
	}

	content, err := m.templates.Read(ctx, spec.SourcePath)
	if err != nil {
		return FileRes{
			Path:   target,
			Action: ActionError,
			Err:    &SourceReadError{Module: mod.Name, Source: spec.SourcePath, Err: err},
		}
	}

	content = m.substitute(content, mod)
	content = withProvenance(content, mod, filepath.Ext(target))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return FileRes{Path: target, Action: ActionError, Err: &WriteError{Path: target, Err: err}}
	}
	if err := os.WriteFile(target, content, 0644); err != nil {
		return FileRes{Path: target, Action: ActionError, Err: &WriteError{Path: target, Err: err}}
	}

	action := ActionCreated
	if overwrite {
		action = ActionUpdated
	}
	return FileRes{Path: target, Action: action}
}

// substitute performs the literal token replacement. Unknown tokens are
// left verbatim so template-engine syntax inside module files survives.
func (m *materializer) substitute(content []byte, mod *registry.Descriptor) []byte {
	replacer := strings.NewReplacer(
		"{{moduleName}}", mod.Name,
		"{{moduleVersion}}", mod.Version,
		"{{projectName}}", m.project,
		"{{year}}", strconv.Itoa(m.year),
	)
	return []byte(replacer.Replace(string(content)))
}

type commentStyle struct {
	open  string
	close string
}

var commentStyles = map[string]commentStyle{
	".go":     {open: "//"},
	".ts":     {open: "//"},
	".tsx":    {open: "//"},
	".js":     {open: "//"},
	".jsx":    {open: "//"},
	".mjs":    {open: "//"},
	".py":     {open: "#"},
	".rb":     {open: "#"},
	".sh":     {open: "#"},
	".yml":    {open: "#"},
	".yaml":   {open: "#"},
	".toml":   {open: "#"},
	".env":    {open: "#"},
	".sql":    {open: "--"},
	".css":    {open: "/*", close: "*/"},
	".scss":   {open: "//"},
	".html":   {open: "<!--", close: "-->"},
	".vue":    {open: "<!--", close: "-->"},
	".svelte": {open: "<!--", close: "-->"},
	".md":     {open: "<!--", close: "-->"},
}

var commentMarkers = []string{"//", "#", "/*", "--", "<!--"}

func startsWithComment(content []byte) bool {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	for _, marker := range commentMarkers {
		if bytes.HasPrefix(trimmed, []byte(marker)) {
			return true
		}
	}
	return false
}

// withProvenance prepends a header naming the module and version. Files
// that already open with a comment keep their own header; extensions
// without a known comment syntax are left alone.
func withProvenance(content []byte, mod *registry.Descriptor, ext string) []byte {
	if startsWithComment(content) {
		return content
	}
	style, ok := commentStyles[strings.ToLower(ext)]
	if !ok {
		return content
	}

	header := fmt.Sprintf("%s Installed by monolith: %s@%s", style.open, mod.Name, mod.Version)
	if style.close != "" {
		header += " " + style.close
	}
	return append([]byte(header+"\n\n"), content...)
}

// hashFile returns the hex sha256 of a file's content.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
