package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
)

const (
	defaultBaseURL   = "https://api.openagenda.com/v2"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "go-openagenda"
	maxPayloadBytes  = 16 << 20
)

// Fetcher issues raw queries against the remote API. Fetchers return errors
// for transport failures; degrading them is the Service's job.
type Fetcher interface {
	Events(ctx context.Context, uid string, params Params) (*domain.EventsResult, error)
	Settings(ctx context.Context, uid string) (*domain.AgendaSettings, error)
}

// HTTPConfig configures the HTTP fetcher.
type HTTPConfig struct {
	BaseURL       string
	PublicKey     string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
	UserAgent     string
}

// HTTPFetcher talks to the OpenAgenda JSON API.
type HTTPFetcher struct {
	cfg    HTTPConfig
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher. A nil client gets one with cfg.Timeout.
func NewHTTPFetcher(cfg HTTPConfig, client *http.Client) *HTTPFetcher {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPFetcher{cfg: cfg, client: client}
}

type eventsPayload struct {
	Success *bool           `json:"success"`
	Events  []*domain.Event `json:"events"`
	Total   int             `json:"total"`
	Filters filters.Set     `json:"filters"`
}

type settingsPayload struct {
	Success *bool `json:"success"`
	domain.AgendaSettings
}

// Events fetches one page of events.
func (f *HTTPFetcher) Events(ctx context.Context, uid string, params Params) (*domain.EventsResult, error) {
	endpoint := f.endpoint(uid, "events.json", params.Query())

	var payload eventsPayload
	found, err := f.get(ctx, endpoint, &payload)
	if err != nil {
		return nil, err
	}
	if !found || (payload.Success != nil && !*payload.Success) {
		result := domain.EmptyResult()
		result.NotFound = true
		return result, nil
	}

	events := make([]*domain.Event, 0, len(payload.Events))
	for _, event := range payload.Events {
		if event != nil {
			events = append(events, event)
		}
	}
	return &domain.EventsResult{
		Events:  events,
		Total:   payload.Total,
		Filters: payload.Filters,
	}, nil
}

// Settings fetches the agenda settings.
func (f *HTTPFetcher) Settings(ctx context.Context, uid string) (*domain.AgendaSettings, error) {
	endpoint := f.endpoint(uid, "settings.json", url.Values{})

	var payload settingsPayload
	found, err := f.get(ctx, endpoint, &payload)
	if err != nil {
		return nil, err
	}
	if !found || (payload.Success != nil && !*payload.Success) {
		return &domain.AgendaSettings{NotFound: true}, nil
	}
	settings := payload.AgendaSettings
	return &settings, nil
}

func (f *HTTPFetcher) endpoint(uid, resource string, query url.Values) string {
	if f.cfg.PublicKey != "" {
		query.Set("key", f.cfg.PublicKey)
	}
	return fmt.Sprintf("%s/agendas/%s/%s?%s", f.cfg.BaseURL, url.PathEscape(uid), resource, query.Encode())
}

// get performs a GET with retries and decodes the body into out. It reports
// found=false on 404.
func (f *HTTPFetcher) get(ctx context.Context, endpoint string, out any) (bool, error) {
	var body []byte
	notFound := false

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", f.cfg.UserAgent)

			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				notFound = true
				return nil
			case resp.StatusCode >= http.StatusBadRequest:
				statusErr := &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
				if statusErr.Retryable() {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(f.cfg.RetryAttempts),
		retry.Delay(f.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		return false, err
	}
	if notFound {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, &decodeError{err: err}
	}
	return true, nil
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "remote: decode payload: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }
