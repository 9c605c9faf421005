// Package directory adapts the corporate identity provider. The onboarding
// saga talks to it exclusively through the Provisioner, which owns the
// lookup-before-create discipline.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"meridian/internal/platform/config"
	"meridian/pkg/platform/sentinel"
)

// Account is a provisioned identity in the corporate directory.
type Account struct {
	ID              string `json:"id"`
	Address         string `json:"address"`
	LicenseAssigned bool   `json:"license_assigned"`
}

// CreateAccountRequest carries everything the directory needs to mint an
// account. PersonalEmail is a contact attribute only, never the sign-in
// identity; Address is the sign-in identity.
type CreateAccountRequest struct {
	Address       string `json:"address"`
	PersonalEmail string `json:"personal_email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DisplayName   string `json:"display_name"`
	Password      string `json:"password"`
}

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Client is the directory wire contract.
// FindByAddress returns sentinel.ErrNotFound (wrapped) when no account
// exists for the address; any other error means the lookup itself failed.
type Client interface {
	FindByAddress(ctx context.Context, address string) (*Account, error)
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error)
}

// HTTPClient talks to the real directory API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(cfg config.Directory) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FindByAddress(ctx context.Context, address string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/v1/accounts?address=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var account Account
		if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
			return nil, fmt.Errorf("decode directory account: %w", err)
		}
		return &account, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("no account for %s: %w", address, sentinel.ErrNotFound)
	default:
		return nil, fmt.Errorf("directory lookup returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
}

func (c *HTTPClient) CreateAccount(ctx context.Context, createReq CreateAccountRequest) (*Account, error) {
	body, err := json.Marshal(createReq)
	if err != nil {
		return nil, fmt.Errorf("encode directory create: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build directory create: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory create returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("decode created account: %w", err)
	}
	return &account, nil
}
