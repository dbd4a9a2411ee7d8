package pypi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/groupsync/pkg/cache"
	"github.com/matzehuels/groupsync/pkg/integrations"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/version"
)

// DefaultBaseURL is the public PyPI JSON API.
const DefaultBaseURL = "https://pypi.org/pypi"

// ErrNoRelease is returned when a project has no usable release.
var ErrNoRelease = errors.New("no installable release")

// PackageInfo is the part of a PyPI project document groupsync uses.
// It is what gets cached, so it stays small.
type PackageInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"` // PyPI's own "latest" field
	Summary        string   `json:"summary,omitempty"`
	RequiresPython string   `json:"requires_python,omitempty"`
	Releases       []string `json:"releases"` // versions with at least one non-yanked file
}

// Latest returns the highest release. Pre-releases are only considered
// when pre is true or when nothing else exists.
func (p *PackageInfo) Latest(pre bool) (version.Version, error) {
	var best, bestPre version.Version
	for _, raw := range p.Releases {
		v, err := version.Parse(raw)
		if err != nil {
			continue
		}
		if v.IsPrerelease() && !pre {
			if bestPre.IsZero() || bestPre.Less(v) {
				bestPre = v
			}
			continue
		}
		if best.IsZero() || best.Less(v) {
			best = v
		}
	}
	switch {
	case !best.IsZero():
		return best, nil
	case !bestPre.IsZero():
		return bestPre, nil
	}
	if v, err := version.Parse(p.Version); err == nil {
		return v, nil
	}
	return version.Version{}, fmt.Errorf("%w: %s", ErrNoRelease, p.Name)
}

// Client provides access to the PyPI JSON API with caching and retries.
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client. A nil backend disables caching.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, nil),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a mirror or a test server.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
	return c
}

// FetchPackage retrieves a project's release list. If refresh is true the
// cache is bypassed.
//
// Returns [integrations.ErrNotFound] if the project doesn't exist and
// [integrations.ErrNetwork] for HTTP failures that outlast the retries.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = manifest.Normalize(pkg)
	if pkg == "" {
		return nil, fmt.Errorf("%w: empty package name", integrations.ErrNotFound)
	}

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// LatestVersion returns the newest final release of pkg.
func (c *Client) LatestVersion(ctx context.Context, pkg string, refresh bool) (version.Version, error) {
	info, err := c.FetchPackage(ctx, pkg, refresh)
	if err != nil {
		return version.Version{}, err
	}
	return info.Latest(false)
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", integrations.ErrNotFound, pkg)
		}
		return err
	}

	*info = PackageInfo{
		Name:           manifest.Normalize(data.Info.Name),
		Version:        data.Info.Version,
		Summary:        data.Info.Summary,
		RequiresPython: data.Info.RequiresPython,
		Releases:       installable(data.Releases),
	}
	return nil
}

// installable keeps the versions that have at least one non-yanked file.
func installable(releases map[string][]apiFile) []string {
	out := make([]string, 0, len(releases))
	for v, files := range releases {
		for _, f := range files {
			if !f.Yanked {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

type apiResponse struct {
	Info     apiInfo              `json:"info"`
	Releases map[string][]apiFile `json:"releases"`
}

type apiInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Summary        string `json:"summary"`
	RequiresPython string `json:"requires_python"`
}

type apiFile struct {
	Filename string `json:"filename"`
	Yanked   bool   `json:"yanked"`
}
