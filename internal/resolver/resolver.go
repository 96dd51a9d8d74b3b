// Package resolver turns a pasted url, or an explicit host and id pair, into
// the canonical VideoData entries of that video.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sharetube/syncroom/internal/domain"
)

const DefaultTimeout = 5 * time.Second

// Input is either a url or a host and id pair. A non-empty URL wins.
type Input struct {
	URL  string
	Host domain.Host
	Id   string
}

type Config struct {
	// BaseURL of the server exposing GET /api/{host}?id=.
	BaseURL string
	Timeout time.Duration
}

type Resolver struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func New(cfg *Config, logger *slog.Logger) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Resolver{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Identify returns the host and native id for input without any network
// call.
func Identify(input Input) (domain.Host, string, error) {
	if input.URL == "" {
		if !input.Host.Valid() {
			return "", "", domain.ErrUnsupportedHost
		}
		if input.Id == "" {
			return "", "", domain.ErrInvalidId
		}

		return input.Host, input.Id, nil
	}

	host, err := ExtractHostName(input.URL)
	if err != nil {
		return "", "", err
	}

	id, err := ExtractVideoId(host, input.URL)
	if err != nil {
		return "", "", err
	}

	return host, id, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// Resolve makes exactly one lookup call. A playlist host returns many
// entries.
func (r *Resolver) Resolve(ctx context.Context, input Input) ([]domain.VideoData, error) {
	host, id, err := Identify(input)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/%s?%s", r.baseURL, host, url.Values{"id": {id}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	r.logger.DebugContext(ctx, "resolving video", "host", host, "id", id)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
			errResp.Error = http.StatusText(resp.StatusCode)
		}

		r.logger.InfoContext(ctx, "lookup failed", "host", host, "status", resp.StatusCode, "error", errResp.Error)
		return nil, &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: errResp.Error,
		}
	}

	var videos []domain.VideoData
	if err := json.Unmarshal(body, &videos); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamUnavailable, err)
	}

	if len(videos) == 0 {
		return nil, domain.ErrNotFound
	}

	return videos, nil
}

// Message returns the text shown in the transient error banner.
func Message(err error) string {
	var upstreamErr *domain.UpstreamError
	switch {
	case errors.As(err, &upstreamErr):
		return upstreamErr.Message
	case errors.Is(err, domain.ErrUnsupportedHost),
		errors.Is(err, domain.ErrInvalidId),
		errors.Is(err, domain.ErrNotFound):
		return err.Error()
	default:
		return "Unknown fetching error. Make sure you selected correct source."
	}
}
