// Package e2e drives a running onboarding service over HTTP with godog.
//
// Point MERIDIAN_E2E_BASE_URL at the service under test and
// MERIDIAN_E2E_ADMIN_TOKEN at a valid admin JWT before running.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// TestContext carries the HTTP session shared by all steps of a scenario.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	lastStatus int
	lastBody   map[string]any

	// Scenario state accumulated by steps.
	subjectID  string
	tokenValue string
}

func NewTestContext() *TestContext {
	base := os.Getenv("MERIDIAN_E2E_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:    base,
		adminToken: os.Getenv("MERIDIAN_E2E_ADMIN_TOKEN"),
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.subjectID = ""
	tc.tokenValue = ""
}

func (tc *TestContext) do(method, path string, body any, admin bool) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+tc.adminToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &tc.lastBody)
	}
	return nil
}

// POST sends an unauthenticated request.
func (tc *TestContext) POST(path string, body any) error { return tc.do(http.MethodPost, path, body, false) }

// GET sends an unauthenticated request.
func (tc *TestContext) GET(path string) error { return tc.do(http.MethodGet, path, nil, false) }

// AdminPOST sends an admin-authenticated request.
func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, true)
}

// Field reads a top-level field from the last JSON response.
func (tc *TestContext) Field(name string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response")
	}
	v, ok := tc.lastBody[name]
	if !ok {
		return nil, fmt.Errorf("field %q missing from response", name)
	}
	return v, nil
}

// StringField reads a top-level string field from the last JSON response.
func (tc *TestContext) StringField(name string) (string, error) {
	v, err := tc.Field(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", name)
	}
	return s, nil
}
