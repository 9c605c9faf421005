// Package pms adapts the practice-management system. Matching is strictly
// read-only: the PMS record is created out of band by the practice manager,
// and onboarding only links to it.
package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"meridian/internal/platform/config"
	"meridian/pkg/platform/sentinel"
)

// Record is a staff record in the practice-management system.
type Record struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// SubRole is an optional finer-grained role the PMS assigns within a role.
type SubRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is the PMS wire contract. Both finders return sentinel.ErrNotFound
// (wrapped) when no record matches; other errors mean the PMS itself was
// unreachable and the caller may retry later.
type Client interface {
	FindByEmail(ctx context.Context, email string) (*Record, error)
	FindByName(ctx context.Context, firstName, lastName string) (*Record, error)
	ListSubRoles(ctx context.Context, recordID string) ([]SubRole, error)
}

// HTTPClient talks to the real PMS API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(cfg config.PMS) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FindByEmail(ctx context.Context, email string) (*Record, error) {
	query := url.Values{"email": {email}}
	return c.findOne(ctx, query)
}

func (c *HTTPClient) FindByName(ctx context.Context, firstName, lastName string) (*Record, error) {
	query := url.Values{"first_name": {firstName}, "last_name": {lastName}}
	return c.findOne(ctx, query)
}

func (c *HTTPClient) findOne(ctx context.Context, query url.Values) (*Record, error) {
	endpoint := c.baseURL + "/v2/staff?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build staff lookup: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("staff lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("staff lookup returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode staff records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no staff record matched: %w", sentinel.ErrNotFound)
	}
	return &records[0], nil
}

func (c *HTTPClient) ListSubRoles(ctx context.Context, recordID string) ([]SubRole, error) {
	endpoint := fmt.Sprintf("%s/v2/staff/%s/sub-roles", c.baseURL, url.PathEscape(recordID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build sub-role lookup: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sub-role lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sub-role lookup returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	var subRoles []SubRole
	if err := json.NewDecoder(resp.Body).Decode(&subRoles); err != nil {
		return nil, fmt.Errorf("decode sub-roles: %w", err)
	}
	return subRoles, nil
}
