package pubdev

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Masterminds/semver/v3"
)

var ErrNotFound = errors.New("package not found")

type PubDevClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Fetch package listing
func (c *PubDevClient) GetPackage(ctx context.Context, name string) (*PackageInfo, error) {
	u := fmt.Sprintf("%s/api/packages/%s", c.BaseURL, url.PathEscape(name))

	var info PackageInfo
	if err := c.getJSON(ctx, u, &info); err != nil {
		return nil, fmt.Errorf("failed to fetch package %s: %w", name, err)
	}
	return &info, nil
}

// Fetch score and tags for a single package
func (c *PubDevClient) GetScore(ctx context.Context, name string) (*PackageScore, error) {
	u := fmt.Sprintf("%s/api/packages/%s/score", c.BaseURL, url.PathEscape(name))

	var score PackageScore
	if err := c.getJSON(ctx, u, &score); err != nil {
		return nil, fmt.Errorf("failed to fetch score for %s: %w", name, err)
	}
	return &score, nil
}

// FetchLatestVersion returns the version pub.dev currently advertises as
// latest. Listings without one fall back to the greatest stable,
// non-retracted version.
func (c *PubDevClient) FetchLatestVersion(ctx context.Context, name string) (string, error) {
	info, err := c.GetPackage(ctx, name)
	if err != nil {
		return "", err
	}
	if info.Latest.Version != "" {
		return info.Latest.Version, nil
	}
	if latest := LatestStable(info.Versions); latest != "" {
		return latest, nil
	}
	return "", fmt.Errorf("no published version for %s", name)
}

func (c *PubDevClient) FetchTags(ctx context.Context, name string) ([]string, error) {
	score, err := c.GetScore(ctx, name)
	if err != nil {
		return nil, err
	}
	return score.Tags, nil
}

func (c *PubDevClient) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// LatestStable picks the greatest version without a pre-release part,
// skipping retracted and unparseable versions.
func LatestStable(versions []VersionInfo) string {
	var (
		best    *semver.Version
		bestRaw string
	)
	for _, v := range versions {
		if v.Retracted {
			continue
		}
		sv, err := semver.NewVersion(v.Version)
		if err != nil || sv.Prerelease() != "" {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best = sv
			bestRaw = v.Version
		}
	}
	return bestRaw
}
