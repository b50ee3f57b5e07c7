// Package maven implements a dependency source backed by a Maven repository.
//
// Identifiers are fully qualified Maven coordinates "groupId:artifactId:version".
// Resolution fetches the artifact's POM document and returns the coordinates
// listed in its <dependencies> section; no version mediation, scope
// filtering, or exclusion handling is performed.
package maven

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deptree/pkg/cache"
	"deptree/pkg/httputil"
	"deptree/pkg/source"
)

// DefaultBaseURL is the Maven Central repository root.
const DefaultBaseURL = "https://repo1.maven.org/maven2"

const httpTimeout = 10 * time.Second

// Client resolves Maven coordinates against a repository over HTTP.
// Responses are cached and transient failures retried with backoff.
// Safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	baseURL string
}

// New creates a Client for the repository rooted at baseURL (DefaultBaseURL
// if empty). POM dependency lists are cached in c for ttl; pass a
// [cache.NullCache] to disable caching.
func New(baseURL string, c cache.Cache, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   c,
		ttl:     ttl,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Name returns "maven".
func (c *Client) Name() string { return "maven" }

// Close releases the client's response cache.
func (c *Client) Close() error { return c.cache.Close() }

// Resolve fetches and parses the POM for coordinate id and returns its
// direct dependencies as "groupId:artifactId:version" strings, in document
// order. Dependencies missing a group or artifact are skipped; a missing
// version becomes "unknown".
//
// Returns [source.ErrNotFound] if the repository has no such POM and
// [source.ErrNetwork] for transport failures.
func (c *Client) Resolve(ctx context.Context, id string) ([]string, error) {
	groupID, artifactID, version, err := SplitCoordinate(id)
	if err != nil {
		return nil, err
	}

	key := "maven:deps:" + id
	if data, ok, _ := c.cache.Get(ctx, key); ok {
		var deps []string
		if err := json.Unmarshal(data, &deps); err == nil {
			return deps, nil
		}
	}

	var deps []string
	err = httputil.RetryWithBackoff(ctx, func() error {
		pom, err := c.fetchPOM(ctx, c.pomURL(groupID, artifactID, version))
		if err != nil {
			return err
		}
		deps = extractDeps(pom)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	if data, err := json.Marshal(deps); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return deps, nil
}

// POMURL returns the repository URL of the POM document for coordinate id.
func (c *Client) POMURL(id string) (string, error) {
	groupID, artifactID, version, err := SplitCoordinate(id)
	if err != nil {
		return "", err
	}
	return c.pomURL(groupID, artifactID, version), nil
}

func (c *Client) pomURL(groupID, artifactID, version string) string {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s/%s-%s.pom",
		c.baseURL, groupPath, artifactID, version, artifactID, version)
}

func (c *Client) fetchPOM(ctx context.Context, url string) (*pomProject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", source.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}

	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, fmt.Errorf("invalid POM document: %w", err)
	}
	return &pom, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return source.ErrNotFound
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", source.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", source.ErrNetwork, code)
	}
}

// extractDeps flattens a POM's <dependencies> section into coordinate
// strings. Entries without a group or artifact are dropped; a missing
// version is recorded as "unknown" rather than resolved.
func extractDeps(pom *pomProject) []string {
	var deps []string
	for _, dep := range pom.Dependencies {
		group := strings.TrimSpace(dep.GroupID)
		artifact := strings.TrimSpace(dep.ArtifactID)
		if group == "" || artifact == "" {
			continue
		}
		version := strings.TrimSpace(dep.Version)
		if version == "" {
			version = "unknown"
		}
		deps = append(deps, group+":"+artifact+":"+version)
	}
	return deps
}

// SplitCoordinate parses a "groupId:artifactId:version" coordinate. All
// three parts must be non-empty.
func SplitCoordinate(id string) (groupID, artifactID, version string, err error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("invalid maven coordinate %q (expected groupId:artifactId:version)", id)
	}
	return parts[0], parts[1], parts[2], nil
}

// ValidCoordinate reports whether id is a well-formed
// "groupId:artifactId:version" coordinate.
func ValidCoordinate(id string) bool {
	_, _, _, err := SplitCoordinate(id)
	return err == nil
}

var _ source.Source = (*Client)(nil)
