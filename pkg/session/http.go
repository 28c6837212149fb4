package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ContentType is the media type of an encoded envelope.
const ContentType = "application/cbor"

// HTTPConfig holds remote session configuration
type HTTPConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPSubmitter posts envelopes to a remote capture session service.
type HTTPSubmitter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSubmitter creates a submitter for the service at cfg.URL.
func NewHTTPSubmitter(cfg HTTPConfig) *HTTPSubmitter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSubmitter{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit posts env to the repeating or capture endpoint, by envelope kind.
func (s *HTTPSubmitter) Submit(ctx context.Context, env *Envelope) error {
	body, err := Encode(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/devices/%s/requests/%s",
		s.baseURL, url.PathEscape(env.DeviceID), url.PathEscape(string(env.Kind)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("X-Request-Id", env.ID)
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("submission failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	return nil
}

var _ Submitter = (*HTTPSubmitter)(nil)
