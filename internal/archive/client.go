package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// workerCacheSize bounds the number of {from-block: worker URL} entries
// kept in the client's cache.
const workerCacheSize = 256

// Client talks to a Subsquid-style archive: a height endpoint, a
// from-block-to-worker-URL redirection, and per-worker batch queries.
type Client struct {
	baseURL string
	http    *http.Client
	log     log.Logger
	workers *lru.Cache[uint64, string]
}

// NewClient builds an archive Client rooted at baseURL (no trailing slash
// required).
func NewClient(l log.Logger, baseURL string) *Client {
	workers, err := lru.New[uint64, string](workerCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which workerCacheSize
		// never is.
		panic(err)
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
		log:     l,
		workers: workers,
	}
}

// Height returns the archive's current indexed height.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	body, err := c.doGet(ctx, c.baseURL+"/height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("archive: parse height %q: %w", body, err)
	}
	return height, nil
}

// worker resolves the worker URL that serves the given from-block,
// reusing a cached answer only when the exact same from-block was resolved
// before; a scan that advances its from-block resolves a fresh URL on each
// query.
func (c *Client) worker(ctx context.Context, from uint64) (string, error) {
	if url, ok := c.workers.Get(from); ok {
		return url, nil
	}
	body, err := c.doGet(ctx, fmt.Sprintf("%s/%d/worker", c.baseURL, from))
	if err != nil {
		return "", err
	}
	url := strings.TrimSpace(string(body))
	c.workers.Add(from, url)
	return url, nil
}

// Query posts a batch query to the worker serving req.FromBlock and returns
// the decoded block array.
func (c *Client) Query(ctx context.Context, req BatchRequest) ([]Block, error) {
	workerURL, err := c.worker(ctx, req.FromBlock)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("archive: encode batch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, workerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("archive: build worker request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug("archive query", "worker", workerURL, "from", req.FromBlock, "to", req.ToBlock)
	res, err := c.http.Do(httpReq)
	if err != nil {
		// The worker URL may have gone stale; evict it so the next query
		// re-resolves.
		c.workers.Remove(req.FromBlock)
		return nil, fmt.Errorf("archive: worker request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("archive: read worker response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		c.log.Error("archive worker request failed", "worker", workerURL, "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("archive: worker responded with status %d", res.StatusCode)
	}

	var blocks []Block
	if err := json.Unmarshal(body, &blocks); err != nil {
		return nil, fmt.Errorf("archive: decode worker response: %w", err)
	}
	return blocks, nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: build request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive: request to %s failed: %w", url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("archive: read response from %s: %w", url, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive: %s responded with status %d", url, res.StatusCode)
	}
	return body, nil
}
