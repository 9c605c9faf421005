// Package vault adapts the key-management service that wraps per-subject
// data-encryption keys for clinical notes.
package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"meridian/internal/platform/config"
	"meridian/pkg/platform/sentinel"
)

// WrapResult carries the vault-wrapped ciphertext and the wrapping key
// version it was produced under.
type WrapResult struct {
	Ciphertext string
	KeyVersion string
}

// Client is the key-vault wire contract. EnsureWrappingKey is idempotent:
// creating a key that already exists succeeds and leaves it untouched.
type Client interface {
	EnsureWrappingKey(ctx context.Context, name string) error
	Wrap(ctx context.Context, name string, plaintext []byte) (*WrapResult, error)
}

// HTTPClient talks to a transit-style key vault.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(cfg config.Vault) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) EnsureWrappingKey(ctx context.Context, name string) error {
	endpoint := fmt.Sprintf("%s/v1/transit/keys/%s", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("build wrapping-key request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ensure wrapping key: %w", err)
	}
	defer resp.Body.Close()

	// 204 on create, 200/400 "key already exists" variants all mean the key
	// is there; only 5xx means the vault itself is down.
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("vault returned %d creating key %s: %w", resp.StatusCode, name, sentinel.ErrUnavailable)
	}
	return nil
}

func (c *HTTPClient) Wrap(ctx context.Context, name string, plaintext []byte) (*WrapResult, error) {
	body, err := json.Marshal(map[string]string{
		"plaintext": base64.StdEncoding.EncodeToString(plaintext),
	})
	if err != nil {
		return nil, fmt.Errorf("encode wrap request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/transit/encrypt/%s", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build wrap request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wrap data key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vault returned %d wrapping with key %s: %w", resp.StatusCode, name, sentinel.ErrUnavailable)
	}
	var payload struct {
		Data struct {
			Ciphertext string `json:"ciphertext"`
			KeyVersion int    `json:"key_version"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode wrap response: %w", err)
	}
	return &WrapResult{
		Ciphertext: payload.Data.Ciphertext,
		KeyVersion: fmt.Sprintf("v%d", payload.Data.KeyVersion),
	}, nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	req.Header.Set("X-Vault-Token", c.token)
}
