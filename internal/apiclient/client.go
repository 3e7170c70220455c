// Package apiclient talks to the remote quote backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/pkg/logger"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultHealthPath = "/api/health"
	maxErrorBody      = 512
)

// ErrNoBaseURL is returned when the client is built without an upstream address.
var ErrNoBaseURL = errors.New("apiclient: base url is required")

// Config describes how to reach the remote backend.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HealthPath string
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("apiclient: %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("apiclient: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client fetches collections from the remote backend.
type Client struct {
	base       *url.URL
	healthPath string
	http       *http.Client
	log        *zap.Logger
}

// New builds a Client. A non-empty token is sent as a bearer credential on every request.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	healthPath := strings.TrimSpace(cfg.HealthPath)
	if healthPath == "" {
		healthPath = defaultHealthPath
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	return &Client{
		base:       base,
		healthPath: healthPath,
		http:       &http.Client{Timeout: timeout, Transport: transport},
		log:        logger.WithModule("apiclient"),
	}, nil
}

// BaseURL returns the configured upstream address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Quotes fetches every quote.
func (c *Client) Quotes(ctx context.Context) ([]models.Quote, error) {
	return fetchCollection[models.Quote](ctx, c, models.CollectionQuotes)
}

// Clients fetches every client.
func (c *Client) Clients(ctx context.Context) ([]models.Client, error) {
	return fetchCollection[models.Client](ctx, c, models.CollectionClients)
}

// Sites fetches every site.
func (c *Client) Sites(ctx context.Context) ([]models.Site, error) {
	return fetchCollection[models.Site](ctx, c, models.CollectionSites)
}

// Supplies fetches the supplies catalogue.
func (c *Client) Supplies(ctx context.Context) ([]models.SupplyItem, error) {
	return fetchCollection[models.SupplyItem](ctx, c, models.CollectionSupplies)
}

// Ping issues HEAD on the health endpoint. Any 2xx response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodHead, c.healthPath)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func fetchCollection[T any](ctx context.Context, c *Client, collection models.Collection) ([]T, error) {
	path := "/api/" + collection.Key()
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read %s: %w", path, err)
	}

	items, err := decodeList[T](body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: decode %s: %w", path, err)
	}
	c.log.Debug("fetched collection", zap.String("collection", string(collection)), zap.Int("count", len(items)))
	return items, nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return resp, nil
}

// envelope is the {success, data, error} wrapper some backend routes respond with.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeList accepts either a bare JSON array or an envelope around one. A null payload
// decodes as an empty list.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if env.Success != nil && !*env.Success {
			if env.Error != nil && env.Error.Message != "" {
				return nil, fmt.Errorf("upstream error %s: %s", env.Error.Code, env.Error.Message)
			}
			return nil, errors.New("upstream reported failure")
		}
		return decodeList[T](env.Data)
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
