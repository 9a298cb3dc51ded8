// Package web provides a read-only BlobStore over HTTP.
//
// The server exposes a version manifest at <base>/versions:
//
//	{"latest": "2025.01.01.0000.0000", "versions": ["2025.01.01.0000.0000", ...]}
//
// and serves archive files at <base>/<version>/<path>.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	json "github.com/go-json-experiment/json"
	"github.com/hupe1980/exdcache/blobstore"
)

var versionPattern = regexp.MustCompile(`^H?\d{4}\.\d{2}\.\d{2}\.\d{4}\.\d{4}$`)

// ErrUnknownVersion is returned when the requested version is not listed by the server.
var ErrUnknownVersion = errors.New("web: unknown game version")

// ValidVersion reports whether v looks like a game version string.
func ValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}

// VersionInfo is the server's version manifest.
type VersionInfo struct {
	Latest   string   `json:"latest"`
	Versions []string `json:"versions"`
}

// FetchVersions reads the version manifest. Versions are returned newest first.
func FetchVersions(ctx context.Context, client *http.Client, baseURL string) (*VersionInfo, error) {
	u, err := url.JoinPath(baseURL, "versions")
	if err != nil {
		return nil, err
	}
	body, err := get(ctx, client, u)
	if err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("web: decode versions: %w", err)
	}
	slices.Sort(info.Versions)
	slices.Reverse(info.Versions)
	return &info, nil
}

// Store fetches archive files of one game version over HTTP.
type Store struct {
	client  *http.Client
	base    string
	version string
}

// New resolves version against the server manifest. An empty version selects
// the latest one.
func New(ctx context.Context, client *http.Client, baseURL, version string) (*Store, error) {
	if client == nil {
		client = http.DefaultClient
	}
	info, err := FetchVersions(ctx, client, baseURL)
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = info.Latest
	} else if !slices.Contains(info.Versions, version) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	base, err := url.JoinPath(baseURL, version)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, base: base, version: version}, nil
}

// Version returns the resolved game version.
func (s *Store) Version() string {
	return s.version
}

// Fetch implements blobstore.Fetcher.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	u, err := url.JoinPath(s.base, strings.Split(name, "/")...)
	if err != nil {
		return nil, err
	}
	return get(ctx, s.client, u)
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	data, err := s.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return blobstore.NewBytesBlob(data), nil
}

// List is not supported; the server has no directory listing.
func (s *Store) List(context.Context, string) ([]string, error) {
	return nil, errors.ErrUnsupported
}

func get(ctx context.Context, client *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("web: %s: %w", u, blobstore.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("web: %s: unexpected status %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
