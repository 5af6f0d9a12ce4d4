package portal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sqd-archives/firehose-bridge/internal/archive"
)

// Client talks to a portal endpoint: a height endpoint and a streaming
// query endpoint that replies with one block per line.
type Client struct {
	baseURL string
	http    *http.Client
	log     log.Logger
}

// NewClient builds a portal Client rooted at baseURL.
func NewClient(l log.Logger, baseURL string) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: http.DefaultClient, log: l}
}

// Height returns the portal's current indexed height.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/height", nil)
	if err != nil {
		return 0, fmt.Errorf("portal: build height request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("portal: height request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("portal: read height response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("portal: height responded with status %d", res.StatusCode)
	}
	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("portal: parse height %q: %w", body, err)
	}
	return height, nil
}

// StreamFunc is called once per block a Stream call decodes, in ascending
// order. Returning a non-nil error stops the stream.
type StreamFunc func(b archive.Block) error

// Stream posts query to {portal}/stream and invokes yield once per
// newline-terminated JSON block in the response body, per spec §6.3: "a
// line is only parsed once terminated by \n".
func (c *Client) Stream(ctx context.Context, query Query, yield StreamFunc) error {
	payload, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("portal: encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stream", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("portal: build stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("portal stream", "from", query.FromBlock, "to", query.ToBlock)
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("portal: stream request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		c.log.Error("portal stream request failed", "status", res.StatusCode, "body", string(body))
		return fmt.Errorf("portal: stream responded with status %d", res.StatusCode)
	}

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var b archive.Block
		if err := json.Unmarshal(line, &b); err != nil {
			return fmt.Errorf("portal: decode block line: %w", err)
		}
		if err := yield(b); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("portal: read stream: %w", err)
	}
	return nil
}
