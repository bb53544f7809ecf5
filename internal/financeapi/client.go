package financeapi

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

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/model"
	"github.com/sirupsen/logrus"
)

// Endpoint paths on the Finance Assistant server.
const (
	pathHealth           = "/api/health/"
	pathQueries          = "/api/ha/queries/"
	pathSensor           = "/api/ha/sensor/%s/"
	pathCalendar         = "/api/ha/calendar/%s/"
	pathDashboard        = "/api/ha/dashboard/"
	pathCashFlowForecast = "/api/enhanced/transactions/cash_flow_forecast/"
	pathFinancialSummary = "/api/enhanced/transactions/financial_summary/"
	pathCriticalExpenses = "/api/enhanced/transactions/critical_expenses/"
	pathRecurringSummary = "/api/recurring-transactions/summary/"
	pathAccountSummary   = "/api/enhanced/accounts/summary/"
)

// CRUD resource collections.
const (
	ResourceCategories   = "/api/enhanced/categories/"
	ResourcePayees       = "/api/enhanced/payees/"
	ResourceAccounts     = "/api/enhanced/accounts/"
	ResourceTransactions = "/api/enhanced/transactions/"
	ResourceRecurring    = "/api/recurring-transactions/"
)

// Request timeouts: bulk endpoints get the default, per-entity lookups the
// shorter one.
const (
	DefaultTimeout = 30 * time.Second
	LookupTimeout  = 15 * time.Second
)

// Client handles communication with the Finance Assistant API. One pooled
// http.Client is shared across calls; per-call deadlines come from the
// request context.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logrus.Logger
}

// NewClient initializes a new API client. A missing API key is a
// construction-time error, not a per-call one.
func NewClient(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	if cfg.API.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	return &Client{
		baseURL: cfg.API.BaseURL(),
		apiKey:  cfg.API.APIKey,
		http:    &http.Client{},
		log:     log,
	}, nil
}

// Request performs one call against the API and returns the raw JSON body.
// Status codes map to the typed failures in errors.go.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	return c.request(ctx, method, path, params, body, DefaultTimeout)
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values, body any, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &ConnectionError{Err: err}
		}
		if len(raw) > 0 && !json.Valid(raw) {
			c.log.Warnf("Malformed JSON from %s %s", method, path)
			return nil, ErrBadPayload
		}
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Errorf("Authentication failed for %s: invalid API key", path)
		return nil, ErrInvalidAuth
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		c.log.Warnf("Server error for %s: %d", path, resp.StatusCode)
		return nil, &ServerError{Status: resp.StatusCode}
	default:
		return nil, &HTTPError{Status: resp.StatusCode}
	}
}

// Health checks the API liveness probe.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodGet, pathHealth, nil, nil, LookupTimeout)
	return err
}

// Queries fetches the catalog of configured queries.
func (c *Client) Queries(ctx context.Context) ([]model.Query, error) {
	raw, err := c.request(ctx, http.MethodGet, pathQueries, nil, nil, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var queries []model.Query
	if err := json.Unmarshal(raw, &queries); err == nil {
		return queries, nil
	}
	// Some server builds wrap the catalog in {"results": [...]}.
	var wrapped struct {
		Results []model.Query `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, ErrBadPayload
	}
	return wrapped.Results, nil
}

// SensorData fetches the raw payload for one sensor query. The shape is
// deliberately polymorphic (dict, number, list, or string).
func (c *Client) SensorData(ctx context.Context, queryID string) (any, error) {
	raw, err := c.request(ctx, http.MethodGet, fmt.Sprintf(pathSensor, url.PathEscape(queryID)), nil, nil, LookupTimeout)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrBadPayload
	}
	return payload, nil
}

// CalendarData fetches the raw event records for one calendar query.
func (c *Client) CalendarData(ctx context.Context, queryID string) ([]map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, fmt.Sprintf(pathCalendar, url.PathEscape(queryID)), nil, nil, LookupTimeout)
	if err != nil {
		return nil, err
	}
	var events []map[string]any
	if err := json.Unmarshal(raw, &events); err != nil {
		// A non-list body means no events, not a failure.
		return nil, nil
	}
	return events, nil
}

// Dashboard fetches the aggregate dashboard summary.
func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, pathDashboard)
}

// CashFlowForecast fetches cash flow forecast data.
func (c *Client) CashFlowForecast(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, pathCashFlowForecast)
}

// FinancialSummary fetches the comprehensive financial summary.
func (c *Client) FinancialSummary(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, pathFinancialSummary)
}

// CriticalExpenses fetches critical upcoming expenses.
func (c *Client) CriticalExpenses(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, pathCriticalExpenses)
}

// RecurringSummary fetches the recurring transactions summary.
func (c *Client) RecurringSummary(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, pathRecurringSummary)
}

// AccountSummary fetches account balances and counts.
func (c *Client) AccountSummary(ctx context.Context) (map[string]any, error) {
	return c.getMap(ctx, pathAccountSummary)
}

func (c *Client) getMap(ctx context.Context, path string) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, path, nil, nil, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrBadPayload
	}
	return m, nil
}

// List fetches a CRUD resource collection, optionally filtered. Both bare
// lists and paginated {"results": [...]} bodies are accepted.
func (c *Client) List(ctx context.Context, resource string, filters url.Values) ([]map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, resource, filters, nil, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, ErrBadPayload
	}
	return wrapped.Results, nil
}

// Get fetches a single CRUD entity by id.
func (c *Client) Get(ctx context.Context, resource, id string) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, itemPath(resource, id), nil, nil, LookupTimeout)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrBadPayload
	}
	return m, nil
}

// Create posts a new CRUD entity and returns the server's view of it.
func (c *Client) Create(ctx context.Context, resource string, data map[string]any) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodPost, resource, nil, data, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrBadPayload
	}
	return m, nil
}

// Update replaces a CRUD entity by id.
func (c *Client) Update(ctx context.Context, resource, id string, data map[string]any) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodPut, itemPath(resource, id), nil, data, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrBadPayload
	}
	return m, nil
}

// Delete removes a CRUD entity by id.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	_, err := c.request(ctx, http.MethodDelete, itemPath(resource, id), nil, nil, DefaultTimeout)
	return err
}

func itemPath(resource, id string) string {
	return strings.TrimSuffix(resource, "/") + "/" + url.PathEscape(id) + "/"
}

// TransactionFilter narrows enhanced-transaction listings. Field names on
// the wire are canonical snake_case.
type TransactionFilter struct {
	Status     string
	SourceType string
	StartDate  string
	EndDate    string
	CategoryID string
	AccountID  string
	MinAmount  *float64
	MaxAmount  *float64
}

// Values encodes the filter as query parameters, omitting unset fields.
func (f TransactionFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "status", f.Status)
	setIf(v, "source_type", f.SourceType)
	setIf(v, "start_date", f.StartDate)
	setIf(v, "end_date", f.EndDate)
	setIf(v, "category_id", f.CategoryID)
	setIf(v, "account_id", f.AccountID)
	if f.MinAmount != nil {
		v.Set("min_amount", fmt.Sprintf("%g", *f.MinAmount))
	}
	if f.MaxAmount != nil {
		v.Set("max_amount", fmt.Sprintf("%g", *f.MaxAmount))
	}
	return v
}

// RecurringFilter narrows recurring-transaction listings.
type RecurringFilter struct {
	Frequency  string
	IsActive   *bool
	CategoryID string
	AccountID  string
}

// Values encodes the filter as query parameters, omitting unset fields.
func (f RecurringFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "frequency", f.Frequency)
	setIf(v, "category_id", f.CategoryID)
	setIf(v, "account_id", f.AccountID)
	if f.IsActive != nil {
		v.Set("is_active", fmt.Sprintf("%t", *f.IsActive))
	}
	return v
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}
