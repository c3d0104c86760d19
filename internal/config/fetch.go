package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Fetcher reads a document by location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// LocationFetcher reads plain paths, file:// URLs and http(s):// URLs.
type LocationFetcher struct {
	Client *http.Client
}

// NewLocationFetcher returns a fetcher with a bounded HTTP timeout.
func NewLocationFetcher() *LocationFetcher {
	return &LocationFetcher{Client: &http.Client{Timeout: 60 * time.Second}}
}

// Fetch implements Fetcher.
func (f *LocationFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil, fmt.Errorf("empty location")
	case IsRemote(location):
		return f.fetchHTTP(ctx, location)
	case strings.HasPrefix(location, "file://"):
		path, err := LocalPath(location)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	case strings.Contains(location, "://"):
		return nil, fmt.Errorf("unsupported location scheme in %q", location)
	default:
		return os.ReadFile(location)
	}
}

func (f *LocationFetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", location, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// LocalPath converts a plain path or file:// URL into a filesystem path.
func LocalPath(location string) (string, error) {
	if !strings.HasPrefix(location, "file://") {
		return location, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", location, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		// file://relative/path
		return u.Host + u.Path, nil
	}
	return u.Path, nil
}
