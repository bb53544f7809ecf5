// Package coordinator drives the refresh cycle: fetch the query catalog and
// the aggregate endpoints, derive the composite metrics, and publish one
// immutable snapshot. Cycles never overlap and readers never block on a
// running refresh.
package coordinator

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finassist/bridge/internal/analysis"
	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/financeapi"
	"github.com/finassist/bridge/internal/model"
	"github.com/finassist/bridge/internal/retry"
)

// Catalog retry: three attempts with 1s, 2s pauses between them.
const (
	catalogAttempts    = 3
	catalogBackoffBase = time.Second
)

// API is the upstream surface the coordinator consumes.
type API interface {
	Queries(ctx context.Context) ([]model.Query, error)
	SensorData(ctx context.Context, queryID string) (any, error)
	CalendarData(ctx context.Context, queryID string) ([]map[string]any, error)
	Dashboard(ctx context.Context) (map[string]any, error)
	CashFlowForecast(ctx context.Context) (map[string]any, error)
	FinancialSummary(ctx context.Context) (map[string]any, error)
	CriticalExpenses(ctx context.Context) (map[string]any, error)
	RecurringSummary(ctx context.Context) (map[string]any, error)
	AccountSummary(ctx context.Context) (map[string]any, error)
	List(ctx context.Context, resource string, filters url.Values) ([]map[string]any, error)
}

// UpdateFailedError marks a refresh cycle that produced no snapshot. The
// previous snapshot, if any, stays in place.
type UpdateFailedError struct {
	Err error
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("refresh failed: %v", e.Err)
}

func (e *UpdateFailedError) Unwrap() error { return e.Err }

// Listener is notified after each successful refresh with the new snapshot.
type Listener func(*model.Snapshot)

// Coordinator owns the refresh lifecycle and the current snapshot.
type Coordinator struct {
	api    API
	cfg    config.APIConfig
	log    *logrus.Logger
	policy retry.Policy

	mu        sync.Mutex // serializes refresh cycles
	listeners []Listener

	current     atomic.Pointer[model.Snapshot]
	lastSuccess atomic.Pointer[time.Time]
}

// New builds a coordinator around an API client.
func New(api API, cfg config.APIConfig, log *logrus.Logger) *Coordinator {
	return &Coordinator{
		api: api,
		cfg: cfg,
		log: log,
		policy: retry.Policy{
			MaxAttempts: catalogAttempts,
			Backoff:     retry.Exponential(catalogBackoffBase),
			Retryable:   financeapi.IsRetryable,
		},
	}
}

// Snapshot returns the most recent successful snapshot, or nil before the
// first success.
func (c *Coordinator) Snapshot() *model.Snapshot {
	return c.current.Load()
}

// LastSuccess reports when the last successful refresh completed.
func (c *Coordinator) LastSuccess() (time.Time, bool) {
	t := c.lastSuccess.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// AddListener registers a callback invoked after each successful refresh.
// Register listeners before the first Refresh.
func (c *Coordinator) AddListener(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// ValidateInput checks that the upstream is reachable and the key is valid
// with a single unretried catalog call. Used at setup time.
func (c *Coordinator) ValidateInput(ctx context.Context) error {
	_, err := c.api.Queries(ctx)
	return err
}

// Refresh runs one full cycle. The catalog fetch is load-bearing and retried;
// every other endpoint degrades independently. On failure the previous
// snapshot is left untouched and an UpdateFailedError is returned.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := time.Now()

	var queries []model.Query
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var qErr error
		queries, qErr = c.api.Queries(ctx)
		return qErr
	})
	if err != nil {
		c.log.Errorf("Query catalog fetch failed after %d attempts: %v", catalogAttempts, err)
		return &UpdateFailedError{Err: err}
	}

	snap, err := c.buildSnapshot(ctx, queries)
	if err != nil {
		return &UpdateFailedError{Err: err}
	}

	c.current.Store(snap)
	now := time.Now()
	c.lastSuccess.Store(&now)

	c.log.WithFields(logrus.Fields{
		"queries":  len(snap.Queries),
		"duration": time.Since(started).Round(time.Millisecond).String(),
	}).Info("Refresh cycle completed")

	for _, fn := range c.listeners {
		c.notify(fn, snap)
	}
	return nil
}

func (c *Coordinator) notify(fn Listener, snap *model.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("Snapshot listener panicked: %v", r)
		}
	}()
	fn(snap)
}

func (c *Coordinator) buildSnapshot(ctx context.Context, queries []model.Query) (snap *model.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = fmt.Errorf("snapshot assembly panicked: %v", r)
		}
	}()

	snap = &model.Snapshot{
		Queries:      queries,
		Sensors:      map[string]any{},
		Calendars:    map[string][]map[string]any{},
		Transactions: []map[string]any{},
		Recurring:    []map[string]any{},
		LastUpdated:  time.Now().UTC(),
	}

	if c.cfg.EnableEnhancedSensors {
		snap.Dashboard = c.fetchMap(ctx, "dashboard", c.api.Dashboard)
		snap.CashFlowForecast = c.fetchMap(ctx, "cash_flow_forecast", c.api.CashFlowForecast)
		snap.FinancialSummary = c.fetchMap(ctx, "financial_summary", c.api.FinancialSummary)
		snap.CriticalExpenses = c.fetchMap(ctx, "critical_expenses", c.api.CriticalExpenses)
		snap.RecurringSummary = c.fetchMap(ctx, "recurring_summary", c.api.RecurringSummary)
		snap.AccountSummary = c.fetchMap(ctx, "account_summary", c.api.AccountSummary)
		snap.Transactions = c.fetchList(ctx, "enhanced_transactions", financeapi.ResourceTransactions, nil)
	}
	if c.cfg.EnableRecurringEvents || c.cfg.EnableEnhancedSensors {
		active := true
		snap.Recurring = c.fetchList(ctx, "recurring_transactions",
			financeapi.ResourceRecurring, financeapi.RecurringFilter{IsActive: &active}.Values())
	}

	for _, q := range snap.SensorQueries() {
		data, qErr := c.api.SensorData(ctx, q.ID.String())
		if qErr != nil {
			c.log.Warnf("Sensor query %s failed: %v", q.ID, qErr)
			continue
		}
		snap.Sensors[q.ID.String()] = data
	}

	if c.cfg.EnableEnhancedCalendars {
		for _, q := range snap.CalendarQueries() {
			events, qErr := c.api.CalendarData(ctx, q.ID.String())
			if qErr != nil {
				c.log.Warnf("Calendar query %s failed: %v", q.ID, qErr)
				continue
			}
			snap.Calendars[q.ID.String()] = events
		}
	}

	if c.cfg.EnableEnhancedSensors {
		health := analysis.ComputeFinancialHealth(snap)
		risk := analysis.ComputeRiskAssessment(snap)
		snap.FinancialHealth = &health
		snap.RiskAssessment = &risk
	}
	return snap, nil
}

// fetchMap fetches one aggregate endpoint, degrading to an empty map on
// failure so a single broken endpoint never sinks the cycle.
func (c *Coordinator) fetchMap(ctx context.Context, name string, get func(context.Context) (map[string]any, error)) map[string]any {
	m, err := get(ctx)
	if err != nil {
		c.log.Warnf("Fetch of %s failed, continuing without it: %v", name, err)
		return map[string]any{}
	}
	if m == nil {
		return map[string]any{}
	}
	return m
}

func (c *Coordinator) fetchList(ctx context.Context, name, resource string, filters url.Values) []map[string]any {
	items, err := c.api.List(ctx, resource, filters)
	if err != nil {
		c.log.Warnf("Fetch of %s failed, continuing without it: %v", name, err)
		return []map[string]any{}
	}
	if items == nil {
		return []map[string]any{}
	}
	return items
}
