// Package updater checks GitHub for a newer rmv release.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/version"
)

// LatestReleaseURL is the GitHub API endpoint for the newest release.
const LatestReleaseURL = "https://api.github.com/repos/Dicklesworthstone/roadmap_viewer/releases/latest"

type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker queries a release endpoint.
type Checker struct {
	URL    string
	Client *http.Client
	// Current defaults to version.String().
	Current string
}

// New returns a Checker for the public release feed with a short timeout,
// so a slow network never holds up the caller for long.
func New() *Checker {
	return &Checker{URL: LatestReleaseURL, Client: &http.Client{Timeout: 2 * time.Second}}
}

// Check returns the newer release, or nil when the running build is
// current. Development builds never report an update.
func (c *Checker) Check(ctx context.Context) (*Release, error) {
	current := c.Current
	if current == "" {
		current = version.String()
	}
	if current == "dev" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api returned status: %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if CompareVersions(rel.TagName, current) > 0 {
		return &rel, nil
	}
	return nil, nil
}

// CompareVersions returns 1 if v1 > v2, -1 if v1 < v2, 0 if equal. It
// compares dot-separated numeric segments, ignoring a leading v and any
// pre-release suffix; missing segments count as zero.
func CompareVersions(v1, v2 string) int {
	a, b := segments(v1), segments(v2)
	for i := 0; i < max(len(a), len(b)); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

func segments(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var out []int
	for _, p := range strings.Split(v, ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
