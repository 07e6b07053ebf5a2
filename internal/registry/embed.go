package registry

import "embed"

//go:embed embedded/registry.json embedded/templates
var embeddedFS embed.FS

func embeddedSource() FSSource {
	return FSSource{FS: embeddedFS, Root: "embedded/templates"}
}
