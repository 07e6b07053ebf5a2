package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/eastgold15/Monolith/internal/output"
)

const (
	// LocalRegistryFile is the project-root registry override.
	LocalRegistryFile = "monolith.registry.json"

	// LocalTemplateDir holds template content for LocalRegistryFile.
	LocalTemplateDir = "monolith.templates"
)

// Options configure where the catalog is loaded from.
type Options struct {
	// ProjectRoot is checked for a local registry file. Empty skips the
	// project-local lookup.
	ProjectRoot string

	// RemoteURL, when set, is fetched first; any failure falls back to
	// the local chain.
	RemoteURL string

	// Client overrides the HTTP client used for remote fetches.
	Client *http.Client
}

// Catalog bundles a loaded registry with the template source serving its
// files. Loaded once per run and cached by the caller.
type Catalog struct {
	Registry  *Registry
	Templates TemplateSource

	source string
}

// Source reports where the registry data came from, for verbose output.
func (c *Catalog) Source() string { return c.source }

// Open loads the module registry. A configured remote URL wins; on any
// fetch or parse failure the loader warns and falls back to the local
// chain: a monolith.registry.json in the project root, a registry
// directory beside the executable, and finally the embedded defaults.
func Open(ctx context.Context, opts Options) (*Catalog, error) {
	if opts.RemoteURL != "" {
		cat, err := openRemote(ctx, opts)
		if err == nil {
			return cat, nil
		}
		output.Warn(fmt.Sprintf("Remote registry unavailable (%v), using local registry", err))
	}
	return openLocal(opts)
}

func openRemote(ctx context.Context, opts Options) (*Catalog, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.RemoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry endpoint returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	base, err := templateBase(opts.RemoteURL)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Registry: reg,
		Templates: MultiSource{
			RemoteSource{BaseURL: base, Client: client},
			embeddedSource(),
		},
		source: opts.RemoteURL,
	}, nil
}

func openLocal(opts Options) (*Catalog, error) {
	if opts.ProjectRoot != "" {
		regPath := filepath.Join(opts.ProjectRoot, LocalRegistryFile)
		if data, err := os.ReadFile(regPath); err == nil {
			reg, err := Parse(data)
			if err != nil {
				// The user placed this file; a broken one is an error,
				// not a silent fallback.
				return nil, fmt.Errorf("%s: %w", LocalRegistryFile, err)
			}
			return &Catalog{
				Registry: reg,
				Templates: MultiSource{
					DirSource{Dir: filepath.Join(opts.ProjectRoot, LocalTemplateDir)},
					embeddedSource(),
				},
				source: regPath,
			}, nil
		}
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "registry")
		regPath := filepath.Join(dir, "modules.json")
		if data, err := os.ReadFile(regPath); err == nil {
			reg, err := Parse(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", regPath, err)
			}
			return &Catalog{
				Registry: reg,
				Templates: MultiSource{
					DirSource{Dir: filepath.Join(dir, "templates")},
					embeddedSource(),
				},
				source: regPath,
			}, nil
		}
	}

	return openEmbedded()
}

func openEmbedded() (*Catalog, error) {
	data, err := embeddedFS.ReadFile("embedded/registry.json")
	if err != nil {
		return nil, fmt.Errorf("embedded registry missing: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("embedded registry is invalid: %w", err)
	}
	return &Catalog{
		Registry:  reg,
		Templates: embeddedSource(),
		source:    "embedded",
	}, nil
}

// templateBase derives the template endpoint base from the registry URL
// by trimming the registry document's own path segment.
func templateBase(registryURL string) (string, error) {
	u, err := url.Parse(registryURL)
	if err != nil {
		return "", fmt.Errorf("invalid registry URL: %w", err)
	}
	switch dir := path.Dir(u.Path); dir {
	case ".", "/":
		u.Path = ""
	default:
		u.Path = dir
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
