// Package github retrieves daily snapshot CSVs from the upstream GitHub
// repository: a contents-API listing to discover the files, then raw
// downloads with bounded concurrency. Any failed fetch fails the whole
// retrieval; a silently missing day would corrupt the panel's
// contiguous-range invariant downstream.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/kevinlanning/2019-nCoV/internal/config"
	"github.com/kevinlanning/2019-nCoV/internal/domain"
)

// Client implements pipeline.SnapshotSource against a GitHub repository.
type Client struct {
	httpClient  *http.Client
	apiBaseURL  string
	rawBaseURL  string
	owner       string
	repo        string
	path        string
	ref         string
	concurrency int
	cache       *responseCache
	logger      *slog.Logger
}

// NewClient creates a snapshot client for the configured repository.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.FetchTimeout},
		apiBaseURL:  "https://api.github.com",
		rawBaseURL:  "https://raw.githubusercontent.com",
		owner:       cfg.GitHubOwner,
		repo:        cfg.GitHubRepo,
		path:        cfg.GitHubPath,
		ref:         cfg.GitHubRef,
		concurrency: cfg.FetchConcurrency,
		cache:       newResponseCache(cfg.FetchCacheSize),
		logger:      logger,
	}
}

// Snapshots lists the repository directory and downloads every CSV in it.
// Downloads run with bounded concurrency and fail fast: the first error
// cancels the rest and fails the retrieval.
func (c *Client) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	names, err := c.listSnapshotNames(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("snapshot listing complete", "files", len(names))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots := make([]domain.Snapshot, len(names))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			data, err := c.fetchSnapshot(ctx, name)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			snapshots[i] = domain.Snapshot{Name: name, Data: data}
		}(i, name)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieval interrupted: %w", err)
	}
	// A goroutine that bailed out on cancellation leaves its slot empty.
	// Returning such a set would hand downstream a panel with silent gaps.
	for i, snap := range snapshots {
		if snap.Name == "" {
			return nil, fmt.Errorf("snapshot %s was not fetched", names[i])
		}
	}
	return snapshots, nil
}

// listSnapshotNames queries the contents API for CSV files in the
// configured path, sorted for deterministic retrieval order.
func (c *Client) listSnapshotNames(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.apiBaseURL, c.owner, c.repo, c.path, c.ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create listing request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list snapshots: status %d: %s", resp.StatusCode, body)
	}

	var entries []contentsEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ".csv") {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// fetchSnapshot downloads one raw CSV. Responses are cached by ETag so
// repeated runs against the slow-moving dataset revalidate instead of
// re-downloading.
func (c *Client) fetchSnapshot(ctx context.Context, name string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s/%s", c.rawBaseURL, c.owner, c.repo, c.ref, c.path, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request for %s: %w", name, err)
	}
	cached, haveCached := c.cache.get(name)
	if haveCached && cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if !haveCached {
			return nil, fmt.Errorf("fetch %s: 304 with no cached body", name)
		}
		return cached.body, nil
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			c.cache.put(name, cachedResponse{etag: etag, body: body})
		}
		return body, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch %s: status %d: %s", name, resp.StatusCode, body)
	}
}

// contentsEntry is the subset of the GitHub contents API response we need.
type contentsEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
