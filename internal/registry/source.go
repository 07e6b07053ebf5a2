package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// TemplateSource reads module template content by its registry source
// path (slash-separated, relative to the template root).
type TemplateSource interface {
	Read(ctx context.Context, sourcePath string) ([]byte, error)
}

// DirSource serves templates from a directory on disk.
type DirSource struct {
	Dir string
}

func (s DirSource) Read(ctx context.Context, sourcePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(sourcePath)))
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", sourcePath, err)
	}
	return data, nil
}

// FSSource serves templates from an fs.FS, rooted at Root. The embedded
// default catalog uses this.
type FSSource struct {
	FS   fs.FS
	Root string
}

func (s FSSource) Read(ctx context.Context, sourcePath string) ([]byte, error) {
	data, err := fs.ReadFile(s.FS, path.Join(s.Root, sourcePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", sourcePath, err)
	}
	return data, nil
}

// RemoteSource fetches templates over HTTP from the registry endpoint,
// keyed by the relative source path.
type RemoteSource struct {
	BaseURL string
	Client  *http.Client
}

func (s RemoteSource) Read(ctx context.Context, sourcePath string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	url := strings.TrimSuffix(s.BaseURL, "/") + "/templates/" + sourcePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build template request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template %s: %w", sourcePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("template %s: unexpected status %s", sourcePath, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", sourcePath, err)
	}
	return data, nil
}

// MultiSource tries each source in order and returns the first hit.
type MultiSource []TemplateSource

func (s MultiSource) Read(ctx context.Context, sourcePath string) ([]byte, error) {
	var errs []error
	for _, src := range s {
		data, err := src.Read(ctx, sourcePath)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("template %s: no sources configured", sourcePath)
	}
	return nil, errors.Join(errs...)
}
