package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrResourceNotReady marks the one retryable upstream condition: the remote
// generation job has not produced a fetchable result yet.
var ErrResourceNotReady = errors.New("resource not ready")

// Stub executes a single request against an upstream app. Responses are
// structured objects; binary fields stay raw bytes on the wire.
type Stub interface {
	Call(ctx context.Context, appID string, payload any, userID string) (map[string]any, error)
}

type HTTPStub struct {
	scheme string
	client *http.Client
}

func NewHTTPStub(scheme string) *HTTPStub {
	if scheme == "" {
		scheme = "https"
	}

	return &HTTPStub{
		scheme: scheme,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *HTTPStub) Call(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s://%s/execution?uid=%s", s.scheme, appID, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/msgpack")
	req.Header.Set("Accept", "application/msgpack")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling app %s: %w", appID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: app %s", ErrResourceNotReady, appID)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("app %s returned status %d: %s", appID, resp.StatusCode, raw)
	}

	var response map[string]any
	if err := msgpack.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("malformed response from app %s: %w", appID, err)
	}

	return response, nil
}
