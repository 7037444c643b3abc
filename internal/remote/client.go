package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tavern-tools/loresync/internal/book"
)

// Client is the HTTP implementation of Store.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL is the remote API root, e.g. "http://127.0.0.1:8000".
	BaseURL string
	// APIKey, when non-empty, is sent as a bearer token.
	APIKey string
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// FetchLoreBook implements Store.
func (c *Client) FetchLoreBook(ctx context.Context, name string) (*book.LoreBook, error) {
	var b book.LoreBook
	if err := c.getJSON(ctx, "/api/lorebooks/"+url.PathEscape(name), &b); err != nil {
		return nil, fmt.Errorf("fetching lore book %q: %w", name, err)
	}
	return &b, nil
}

// ReplaceLoreBook implements Store.
func (c *Client) ReplaceLoreBook(ctx context.Context, name string, b *book.LoreBook) error {
	if err := c.putJSON(ctx, "/api/lorebooks/"+url.PathEscape(name), b); err != nil {
		return fmt.Errorf("replacing lore book %q: %w", name, err)
	}
	return nil
}

// FetchCharacter implements Store.
func (c *Client) FetchCharacter(ctx context.Context, name string) (*book.Character, error) {
	var ch book.Character
	if err := c.getJSON(ctx, "/api/characters/"+url.PathEscape(name), &ch); err != nil {
		return nil, fmt.Errorf("fetching character %q: %w", name, err)
	}
	return &ch, nil
}

// ReplaceCharacter implements Store.
func (c *Client) ReplaceCharacter(ctx context.Context, name string, ch *book.Character) error {
	if err := c.putJSON(ctx, "/api/characters/"+url.PathEscape(name), ch); err != nil {
		return fmt.Errorf("replacing character %q: %w", name, err)
	}
	return nil
}

// FetchAsset implements Store.
func (c *Client) FetchAsset(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/assets/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching asset %q: %w", id, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetching asset %q: %w", id, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading asset %q: %w", id, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) putJSON(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.http.Do(req)
}

// checkStatus converts non-2xx responses to typed errors. 404 wraps
// ErrNotFound so callers can branch on it with errors.Is.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w (status %d: %s)", ErrNotFound, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
