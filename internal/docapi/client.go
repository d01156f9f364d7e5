// Package docapi is the HTTP client for the external cloud document API.
// It is a thin collaborator boundary: it moves block trees and content in
// and out and performs no text matching of its own.
package docapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wangpeng1017/docedit/internal/blocktree"
	"github.com/wangpeng1017/docedit/internal/secure"
)

// Client talks to the document service. It implements secure.DocumentAPI.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client with bearer auth and a 30s request timeout.
// Retry and rate-limit policy live with the remote service's SLA, not here.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type documentResponse struct {
	Document blocktree.DocumentMeta  `json:"document"`
	Blocks   []blocktree.BlockRecord `json:"blocks"`
}

// GetDocument fetches a document's metadata and raw block tree.
func (c *Client) GetDocument(ctx context.Context, documentID string) (blocktree.DocumentMeta, []blocktree.BlockRecord, error) {
	var resp documentResponse
	endpoint := c.baseURL + "/documents/" + url.PathEscape(documentID)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return blocktree.DocumentMeta{}, nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	return resp.Document, resp.Blocks, nil
}

type batchUpdateRequest struct {
	Requests []updateRequest `json:"requests"`
}

type updateRequest struct {
	BlockID string `json:"block_id"`
	Content string `json:"content"`
}

// BatchUpdateBlocks writes new content for the given blocks in one call.
func (c *Client) BatchUpdateBlocks(ctx context.Context, documentID string, updates []secure.BlockUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	body := batchUpdateRequest{Requests: make([]updateRequest, len(updates))}
	for i, u := range updates {
		body.Requests[i] = updateRequest{BlockID: u.BlockID, Content: u.NewContent}
	}
	endpoint := c.baseURL + "/documents/" + url.PathEscape(documentID) + "/blocks/batch_update"
	if err := c.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("batch update %s: %w", documentID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
