// Package storage talks to the hosted object storage HTTP API that holds
// product images.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

type Config struct {
	URL        string
	ServiceKey string
	Bucket     string
}

type Client struct {
	baseURL string
	key     string
	bucket  string
	http    *http.Client
}

func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.ServiceKey,
		bucket:  cfg.Bucket,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores body under path, replacing any existing object.
func (c *Client) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	return c.do(req, "upload")
}

// Remove deletes the given object paths in one call.
func (c *Client) Remove(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/object/"+url.PathEscape(c.bucket), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "remove")
}

func (c *Client) PublicURL(path string) string {
	return c.baseURL + "/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(path)
}

func (c *Client) objectURL(path string) string {
	return c.baseURL + "/object/" + url.PathEscape(c.bucket) + "/" + escapePath(path)
}

func (c *Client) do(req *http.Request, op string) error {
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("apikey", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("storage %s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
