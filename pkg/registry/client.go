// Package registry is the HTTP client for the user-registry service.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"orderflow/pkg/models"
)

// ErrNotFound means the registry answered definitively that the user does
// not exist. It is not an outage and must not trip the circuit breaker.
var ErrNotFound = errors.New("user not found in registry")

// Client calls the user-registry service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a registry client. Timeouts are driven by the caller's
// context, not by the http.Client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// GetUser fetches a user snapshot from the registry.
func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+id, nil)
	if err != nil {
		return user, fmt.Errorf("building registry request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return user, fmt.Errorf("decoding registry response: %w", err)
		}
		return user, nil
	case resp.StatusCode == http.StatusNotFound:
		return user, ErrNotFound
	default:
		return user, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
}
