// Package gateway issues HTTP requests to the proxy API fronting the
// WordPress-ecosystem plugins (WooCommerce, FluentCRM, LearnDash).
//
// The upstream is treated as a black box contract: this client serializes
// JSON, attaches the session, and retries a request exactly once after a
// 401 by calling the auth refresh endpoint. No other failure class is
// retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jdarling/eventdash/internal/domain/model"
	"github.com/jdarling/eventdash/internal/session"
	"github.com/jdarling/eventdash/pkg/logger"
	"github.com/jdarling/eventdash/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 100
)

// Client talks to the single backend origin.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    session.Session
	pageSize   int
	logger     logger.Logger
}

// New creates a gateway client for baseURL with configuration options.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		pageSize:   defaultPageSize,
		logger:     logger.Get().Named("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody mirrors the upstream error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// do issues one request, replaying it once after a successful auth refresh
// on 401. resource labels metrics; body may be nil; out may be nil for
// responses whose body is irrelevant.
func (c *Client) do(ctx context.Context, method, path, resource string, body, out any) error {
	start := time.Now()
	err := c.doOnce(ctx, method, path, resource, body, out, true)
	metrics.RecordGatewayRequestDuration(resource, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordGatewayRequest(resource, "error")
		return err
	}
	metrics.RecordGatewayRequest(resource, "ok")
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path, resource string, body, out any, allowAuthRetry bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	sess := c.session
	if s, ok := session.FromContext(ctx); ok {
		sess = s
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordGatewayError(resource, "transport")
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		if !allowAuthRetry {
			metrics.RecordGatewayError(resource, "auth")
			return fmt.Errorf("%w: %s", ErrAuth, resp.Status)
		}
		if err := c.refreshAuth(ctx); err != nil {
			metrics.RecordGatewayError(resource, "auth")
			return err
		}
		metrics.RecordGatewayAuthRetry()
		c.logger.Debug(ctx, "replaying request after auth refresh",
			logger.String("path", path))
		return c.doOnce(ctx, method, path, resource, body, out, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordGatewayError(resource, "status")
		msg := resp.Status
		var eb errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil && eb.Error != "" {
			msg = eb.Error
		}
		return fmt.Errorf("%w: %s (%d)", ErrUpstream, msg, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordGatewayError(resource, "decode")
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// refreshAuth calls the refresh endpoint once. Its own failure is surfaced
// as an auth error; there is no second attempt.
func (c *Client) refreshAuth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", nil)
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: refresh: %w", ErrAuth, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: refresh: %s", ErrAuth, resp.Status)
	}
	return nil
}

func (c *Client) listQuery(extra url.Values) string {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.pageSize))
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return "?" + q.Encode()
}

// Orders fetches WooCommerce orders; extra params (status filters, paging)
// pass through to the upstream.
func (c *Client) Orders(ctx context.Context, params url.Values) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/woo/orders"+c.listQuery(params), "orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Products fetches WooCommerce products, which stand in for training events.
func (c *Client) Products(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/woo/products"+c.listQuery(nil), "products", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Subscribers fetches FluentCRM subscribers.
func (c *Client) Subscribers(ctx context.Context) ([]model.Attendee, error) {
	var attendees []model.Attendee
	if err := c.do(ctx, http.MethodGet, "/fluent-crm/v2/subscribers"+c.listQuery(nil), "subscribers", nil, &attendees); err != nil {
		return nil, err
	}
	return attendees, nil
}

// LearnDashUsers fetches LearnDash users with course and instrument history,
// used by the certification pipeline.
func (c *Client) LearnDashUsers(ctx context.Context) ([]model.Attendee, error) {
	var attendees []model.Attendee
	if err := c.do(ctx, http.MethodGet, "/learndash/users", "learndash_users", nil, &attendees); err != nil {
		return nil, err
	}
	return attendees, nil
}

// DangerZone fetches the upstream at-risk classification for all events.
func (c *Client) DangerZone(ctx context.Context) ([]model.DangerZoneEntry, error) {
	var entries []model.DangerZoneEntry
	if err := c.do(ctx, http.MethodGet, "/events/danger-zone", "danger_zone", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EventRoster fetches the attendee roster for one event.
func (c *Client) EventRoster(ctx context.Context, eventID int) ([]model.Attendee, error) {
	var attendees []model.Attendee
	path := fmt.Sprintf("/events/%d/attendees", eventID)
	if err := c.do(ctx, http.MethodGet, path, "roster", nil, &attendees); err != nil {
		return nil, err
	}
	return attendees, nil
}

// InstrumentSummary fetches the per-event instrument purchase rollup.
func (c *Client) InstrumentSummary(ctx context.Context, eventID int) (model.InstrumentSummary, error) {
	var summary model.InstrumentSummary
	path := fmt.Sprintf("/events/%d/instrument-sales", eventID)
	if err := c.do(ctx, http.MethodGet, path, "instrument_summary", nil, &summary); err != nil {
		return model.InstrumentSummary{}, err
	}
	return summary, nil
}

// ceuReport mirrors the upstream compliance report envelope.
type ceuReport struct {
	Practitioners []model.Practitioner `json:"practitioners"`
}

// CEUCompliance fetches the compliance report, optionally filtered by state
// and profession. The filters are upstream concerns and pass through.
func (c *Client) CEUCompliance(ctx context.Context, state, profession string) ([]model.Practitioner, error) {
	q := url.Values{}
	q.Set("q", "ceu compliance")
	if state != "" {
		q.Set("state", state)
	}
	if profession != "" {
		q.Set("profession", profession)
	}
	var report ceuReport
	if err := c.do(ctx, http.MethodGet, "/insights?"+q.Encode(), "ceu_compliance", nil, &report); err != nil {
		return nil, err
	}
	return report.Practitioners, nil
}

// Health probes the upstream health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "health", nil, nil)
}

// Enroll submits a single enrollment for an event.
func (c *Client) Enroll(ctx context.Context, eventID int, p model.Participant) error {
	path := fmt.Sprintf("/events/%d/enroll", eventID)
	return c.do(ctx, http.MethodPost, path, "enroll", p, nil)
}

// BulkEnroll submits multiple enrollments for an event in one request.
func (c *Client) BulkEnroll(ctx context.Context, eventID int, ps []model.Participant) error {
	path := fmt.Sprintf("/events/%d/enroll/bulk", eventID)
	return c.do(ctx, http.MethodPost, path, "enroll_bulk", ps, nil)
}

// UpdateTags replaces the tag set on a FluentCRM subscriber.
func (c *Client) UpdateTags(ctx context.Context, subscriberID int, tags []string) error {
	path := fmt.Sprintf("/fluent-crm/v2/subscribers/%d/tags", subscriberID)
	return c.do(ctx, http.MethodPost, path, "update_tags", map[string][]string{"tags": tags}, nil)
}
