// Package hubclient is a Go client for the AI Hub API. Besides the raw calls it carries
// the client-side state the web application keeps: the session with its cached credit
// balance, the debounced contacts listing and the lead table selection.
package hubclient

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

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/pkg/tracing"
)

const defaultTimeout = 5 * time.Minute

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string

	// Set on 402 responses
	CheckoutURL string
	Required    int
	Available   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsInsufficientCredits reports whether err is a 402 from the API
func IsInsufficientCredits(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusPaymentRequired
}

// Client calls the AI Hub API with a bearer token
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. It is still wrapped for tracing.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a client for baseURL authenticating with token
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.NewLoggerWithLevel("info"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = tracing.WrapHTTPClient(c.httpClient)
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, payload)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, payload []byte) error {
	var body struct {
		Error       string `json:"error"`
		CheckoutURL string `json:"checkout_url"`
		Required    int    `json:"required"`
		Available   int    `json:"available"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(payload, &body); err != nil || body.Error == "" {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	apiErr.Message = body.Error
	apiErr.CheckoutURL = body.CheckoutURL
	apiErr.Required = body.Required
	apiErr.Available = body.Available
	return apiErr
}

// Credits is a live read of the balance
func (c *Client) Credits(ctx context.Context) (int, error) {
	var resp domain.CreditsResponse
	if err := c.do(ctx, http.MethodGet, "/api/credits.get", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Credits, nil
}

// CheckoutURL asks the API for the user's hosted payment link
func (c *Client) CheckoutURL(ctx context.Context) (string, error) {
	var resp domain.CheckoutLink
	if err := c.do(ctx, http.MethodPost, "/api/billing.checkout", nil, struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.CheckoutURL, nil
}

func (c *Client) ListTools(ctx context.Context, category string) ([]*domain.Tool, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	var resp struct {
		Tools []*domain.Tool `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tools.list", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

func (c *Client) GetTool(ctx context.Context, id string) (*domain.Tool, error) {
	var resp struct {
		Tool *domain.Tool `json:"tool"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tools.get", url.Values{"id": {id}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tool, nil
}

// Execute runs a tool. A shortfall comes back as an *APIError with status 402.
func (c *Client) Execute(ctx context.Context, req *domain.ExecuteToolRequest) (*domain.ExecutionView, error) {
	var resp struct {
		Execution *domain.ExecutionView `json:"execution"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/executions.execute", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Execution, nil
}

func (c *Client) GetExecution(ctx context.Context, id string) (*domain.ExecutionView, error) {
	var resp struct {
		Execution *domain.ExecutionView `json:"execution"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/executions.get", url.Values{"id": {id}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Execution, nil
}

func (c *Client) Estimate(ctx context.Context, toolID string) (*domain.DurationEstimate, error) {
	var resp domain.DurationEstimate
	if err := c.do(ctx, http.MethodGet, "/api/executions.estimate", url.Values{"tool_id": {toolID}}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListContacts runs one contacts listing. UserID is ignored, the token decides.
func (c *Client) ListContacts(ctx context.Context, q domain.ContactQuery) ([]*domain.Contact, error) {
	var resp struct {
		Contacts []*domain.Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/contacts.list", contactQueryParams(q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

func contactQueryParams(q domain.ContactQuery) url.Values {
	params := url.Values{}
	if search := strings.TrimSpace(q.Search); search != "" {
		params.Set("search", search)
	}
	if q.SearchField != "" {
		params.Set("search_field", string(q.SearchField))
	}
	if len(q.Tags) > 0 {
		params.Set("tags", strings.Join(q.Tags, ","))
	}
	if len(q.IDs) > 0 {
		params.Set("ids", strings.Join(q.IDs, ","))
	}
	if q.SortBy != "" {
		params.Set("sort_by", string(q.SortBy))
	}
	if q.SortOrder != "" {
		params.Set("sort_order", string(q.SortOrder))
	}
	return params
}

// AddFromExecution ingests selected rows of an execution's lead array
func (c *Client) AddFromExecution(ctx context.Context, req *domain.AddFromExecutionRequest) (*domain.IngestionResult, error) {
	var resp domain.IngestionResult
	err := c.do(ctx, http.MethodPost, "/api/contacts.addFromExecution", nil, req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTags replaces the tag list of every listed contact
func (c *Client) UpdateTags(ctx context.Context, contactIDs, tags []string) (int64, error) {
	if tags == nil {
		tags = []string{}
	}
	body := map[string]interface{}{
		"contact_ids": contactIDs,
		"tags":        tags,
	}
	var resp struct {
		Updated int64 `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/contacts.updateTags", nil, body, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}
