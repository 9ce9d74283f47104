package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/getpup/pgstage"
)

const defaultRequestTimeout = 30 * time.Second

// APIClient is an HTTP implementation of Client against the control-plane
// REST API.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIOption configures optional APIClient behaviour.
type APIOption func(*APIClient)

// WithHTTPClient replaces the underlying HTTP client, e.g. for custom
// transports or tighter timeouts.
func WithHTTPClient(client *http.Client) APIOption {
	return func(c *APIClient) {
		c.httpClient = client
	}
}

// NewAPIClient creates a control-plane client. baseURL is the API root
// (e.g. "https://console.example.com/api/v2") and apiKey is sent as a
// bearer token on every request.
func NewAPIClient(baseURL, apiKey string, opts ...APIOption) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// branchPayload is the wire representation of a branch.
type branchPayload struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Primary  bool   `json:"primary,omitempty"`
}

func (p branchPayload) toBranch(projectID string) pgstage.Branch {
	return pgstage.Branch{
		ProjectID: projectID,
		ID:        p.ID,
		ParentID:  p.ParentID,
		Name:      p.Name,
	}
}

// CreateBranch implements Client.
func (c *APIClient) CreateBranch(ctx context.Context, projectID, parentID string) (pgstage.Branch, error) {
	body := struct {
		Branch branchPayload `json:"branch"`
	}{
		Branch: branchPayload{ParentID: parentID},
	}

	var resp struct {
		Branch branchPayload `json:"branch"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/projects/%s/branches", projectID), body, &resp)
	if err != nil {
		return pgstage.Branch{}, &pgstage.ProvisionError{Op: "create", ProjectID: projectID, Err: err}
	}

	return resp.Branch.toBranch(projectID), nil
}

// DeleteBranch implements Client.
func (c *APIClient) DeleteBranch(ctx context.Context, projectID, branchID string) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%s/branches/%s", projectID, branchID), nil, nil)
	if err != nil {
		return &pgstage.ProvisionError{Op: "delete", ProjectID: projectID, BranchID: branchID, Err: err}
	}

	return nil
}

// ListBranches implements Client.
func (c *APIClient) ListBranches(ctx context.Context, projectID string) ([]pgstage.Branch, error) {
	var resp struct {
		Branches []branchPayload `json:"branches"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%s/branches", projectID), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches for project %s: %w", projectID, err)
	}

	branches := make([]pgstage.Branch, 0, len(resp.Branches))
	for _, p := range resp.Branches {
		branches = append(branches, p.toBranch(projectID))
	}

	return branches, nil
}

// PrimaryBranch implements Client.
func (c *APIClient) PrimaryBranch(ctx context.Context, projectID string) (pgstage.Branch, error) {
	var resp struct {
		Branches []branchPayload `json:"branches"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%s/branches", projectID), nil, &resp)
	if err != nil {
		return pgstage.Branch{}, fmt.Errorf("failed to resolve primary branch for project %s: %w", projectID, err)
	}

	for _, p := range resp.Branches {
		if p.Primary {
			return p.toBranch(projectID), nil
		}
	}

	return pgstage.Branch{}, fmt.Errorf("project %s has no primary branch", projectID)
}

// apiError is a non-2xx response from the control plane.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control plane returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("control plane returned status %d: %s", e.StatusCode, e.Message)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// readErrorMessage extracts a human-readable message from an error
// response body, falling back to the raw body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	return strings.TrimSpace(string(data))
}

var _ Client = (*APIClient)(nil)
