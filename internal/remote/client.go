// Package remote talks to Concepto's external HTTP API. The client serves the
// same per-show reads as the local stores so the sync layer can load a show
// straight from the hosted service.
package remote

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

	"github.com/concepto-studio/concepto/pkg/catalog"
)

const (
	apiKeyHeader   = "X-API-Key"
	previewLength  = 200
	maxBodyBytes   = 32 << 20
	defaultTimeout = 15 * time.Second
)

// Client provides access to the external API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a client for endpoint, which normally ends in /api/external.
func New(endpoint, apiKey string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("concepto api endpoint required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("parse api endpoint: %w", err)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("concepto api key required")
	}

	client := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Endpoint returns the normalised base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases idle connections. Implements io.Closer.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ping checks that the endpoint answers with JSON for an authenticated read.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListShows(ctx)
	return err
}

// ListShows returns every show visible to the API key.
func (c *Client) ListShows(ctx context.Context) ([]catalog.Show, error) {
	var shows []catalog.Show
	if err := c.do(ctx, http.MethodGet, "/shows", nil, &shows); err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []catalog.Show{}
	}
	return shows, nil
}

// GetShow retrieves one show.
func (c *Client) GetShow(ctx context.Context, showID string) (*catalog.Show, error) {
	var show catalog.Show
	if err := c.do(ctx, http.MethodGet, "/shows/"+url.PathEscape(showID), nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// ListAssets returns the show's assets.
func (c *Client) ListAssets(ctx context.Context, showID string) ([]catalog.Asset, error) {
	return listCollection[catalog.Asset](ctx, c, showID)
}

// ListEpisodes returns the show's episodes.
func (c *Client) ListEpisodes(ctx context.Context, showID string) ([]catalog.Episode, error) {
	return listCollection[catalog.Episode](ctx, c, showID)
}

// ListEpisodeIdeas returns the show's episode ideas.
func (c *Client) ListEpisodeIdeas(ctx context.Context, showID string) ([]catalog.EpisodeIdea, error) {
	return listCollection[catalog.EpisodeIdea](ctx, c, showID)
}

// ListGeneralIdeas returns the show's general ideas.
func (c *Client) ListGeneralIdeas(ctx context.Context, showID string) ([]catalog.GeneralIdea, error) {
	return listCollection[catalog.GeneralIdea](ctx, c, showID)
}

// ListPlotThemes returns the show's plot themes.
func (c *Client) ListPlotThemes(ctx context.Context, showID string) ([]catalog.PlotTheme, error) {
	return listCollection[catalog.PlotTheme](ctx, c, showID)
}

// GetEpisode returns an episode with its scenes and shots.
func (c *Client) GetEpisode(ctx context.Context, episodeID string) (*catalog.Episode, error) {
	var episode catalog.Episode
	if err := c.do(ctx, http.MethodGet, "/episodes/"+url.PathEscape(episodeID), nil, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// GetShot returns a single shot.
func (c *Client) GetShot(ctx context.Context, shotID string) (*catalog.Shot, error) {
	var shot catalog.Shot
	if err := c.do(ctx, http.MethodGet, "/shots/"+url.PathEscape(shotID), nil, &shot); err != nil {
		return nil, err
	}
	return &shot, nil
}

// ShotUpdate carries the shot fields to change; nil fields are left alone.
type ShotUpdate struct {
	Audio     *string  `json:"audio,omitempty"`
	Visual    *string  `json:"visual,omitempty"`
	WordCount *int     `json:"wordCount,omitempty"`
	Runtime   *float64 `json:"runtime,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ShotUpdate) Empty() bool {
	return u.Audio == nil && u.Visual == nil && u.WordCount == nil && u.Runtime == nil
}

// UpdateShot applies update and returns the stored shot.
func (c *Client) UpdateShot(ctx context.Context, shotID string, update ShotUpdate) (*catalog.Shot, error) {
	if update.Empty() {
		return nil, errors.New("shot update has no fields")
	}
	var shot catalog.Shot
	if err := c.do(ctx, http.MethodPut, "/shots/"+url.PathEscape(shotID), update, &shot); err != nil {
		return nil, err
	}
	return &shot, nil
}

func listCollection[T catalog.Document](ctx context.Context, c *Client, showID string) ([]T, error) {
	var zero T
	path := "/shows/" + url.PathEscape(showID) + "/" + string(zero.Collection())

	var docs []T
	if err := c.do(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

// envelope is the success body; the payload sits under data.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

// do sends a request and decodes the data payload into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target := c.endpoint + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{
			Code:    CodeNetworkError,
			Message: fmt.Sprintf("network error: %v", err),
			Details: "URL: " + target,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       CodeNetworkError,
			Message:    fmt.Sprintf("read response: %v", err),
			Details:    "URL: " + target,
			Err:        err,
		}
	}

	if looksLikeHTML(resp.Header.Get("Content-Type"), raw) {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       CodeInvalidEndpoint,
			Message:    "received HTML instead of JSON, the API endpoint may be incorrect. URL: " + target,
			Details:    "expected JSON but got HTML; the endpoint should end with '/api/external'",
		}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeError(resp.StatusCode, target, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       CodeInvalidJSON,
			Message:    "invalid JSON response from server. URL: " + target,
			Details:    "response preview: " + preview(raw),
			Err:        err,
		}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       CodeInvalidJSON,
			Message:    "unexpected payload shape. URL: " + target,
			Details:    "response preview: " + preview(env.Data),
			Err:        err,
		}
	}
	return nil
}

func decodeError(status int, target string, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &APIError{StatusCode: status, Code: CodeUnknown, Message: fmt.Sprintf("HTTP %d", status)}
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{
			StatusCode: status,
			Code:       CodeHTTPError,
			Message:    fmt.Sprintf("HTTP %d - non-JSON error response", status),
			Details:    fmt.Sprintf("URL: %s, response preview: %s", target, preview(raw)),
		}
	}

	apiErr := &APIError{StatusCode: status, Code: env.Code, Message: env.Error, Details: env.Details}
	if apiErr.Code == "" {
		apiErr.Code = CodeUnknown
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", status)
	}
	return apiErr
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 64)])))
	return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")
}

func preview(body []byte) string {
	if len(body) <= previewLength {
		return string(body)
	}
	return string(body[:previewLength])
}
