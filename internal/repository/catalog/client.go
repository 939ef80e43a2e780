package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oshokin/liberica-installer/internal/domain/release"
	"github.com/oshokin/liberica-installer/internal/version"
)

// errBadHTTPStatus is returned when the catalog endpoint answers with a non-OK status.
var errBadHTTPStatus = errors.New("unexpected http status")

// Client fetches the release catalog from the vendor API.
type Client struct {
	// baseURL is the catalog endpoint.
	baseURL string
	// httpClient carries the request timeout.
	httpClient *http.Client
}

// NewClient creates a catalog client for the provided endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads and decodes the full release list.
func (c *Client) Fetch(ctx context.Context) ([]release.Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "liberica-installer/"+version.Short())

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", c.baseURL, response.Status, errBadHTTPStatus)
	}

	var releases []release.Release
	if err = json.NewDecoder(response.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return releases, nil
}
