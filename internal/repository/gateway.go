package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestObserver receives one call per gateway round trip.
type RequestObserver interface {
	ObserveRequest(resource, method string, code int, elapsed time.Duration)
}

// Gateway is a JSON client for the calendar data source. Every collection
// lives under the base URL: /events, /championships, /categories, /users.
type Gateway struct {
	baseURL  string
	client   *http.Client
	log      *slog.Logger
	observer RequestObserver
}

// NewGateway validates baseURL and builds a client whose requests time out
// after timeout. observer may be nil.
func NewGateway(baseURL string, timeout time.Duration, log *slog.Logger, observer RequestObserver) (*Gateway, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid gateway url %q", baseURL)
	}

	return &Gateway{
		baseURL:  strings.TrimRight(parsed.String(), "/"),
		client:   &http.Client{Timeout: timeout},
		log:      log,
		observer: observer,
	}, nil
}

func (g *Gateway) get(ctx context.Context, resource, path string, out any) error {
	return g.do(ctx, http.MethodGet, resource, path, nil, out)
}

func (g *Gateway) do(ctx context.Context, method, resource, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		g.observe(resource, method, 0, elapsed)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	g.observe(resource, method, resp.StatusCode, elapsed)
	g.log.Debug("gateway request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("elapsed", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (g *Gateway) observe(resource, method string, code int, elapsed time.Duration) {
	if g.observer != nil {
		g.observer.ObserveRequest(resource, method, code, elapsed)
	}
}
