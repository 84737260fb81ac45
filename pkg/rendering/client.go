package rendering

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Timeout bounds a single render call. The compute service can take a while
// on heavy expressions; past this bound the call is treated as failed, not
// hung.
const Timeout = 120 * time.Second

// ErrTimeout marks a render call that exceeded the client-side bound.
var ErrTimeout = errors.New("artifact generation timed out, please try a simpler expression")

type generateRequest struct {
	Expression string `json:"expression"`
	Format     string `json:"format"`
	ArtifactID string `json:"artifact_id"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
	Error    string `json:"error"`
}

// Client calls the external render service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a render client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: Timeout},
	}
}

// Render submits an expression and returns the stored image URL. A single
// attempt is made; there is no retry or backoff.
func (c *Client) Render(ctx context.Context, expression, format, artifactID string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Expression: expression,
		Format:     format,
		ArtifactID: artifactID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("render service unreachable: %w", err)
	}
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !result.Success || result.ImageURL == "" {
		if result.Error != "" {
			return "", fmt.Errorf("render service error: %s", result.Error)
		}
		return "", fmt.Errorf("render service returned status %d", resp.StatusCode)
	}
	return result.ImageURL, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
