package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jomfood/jomdeals/internal/common"
	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/query"
)

// Backend endpoint paths, relative to the /api prefix.
const (
	endpointDeals         = "/jomfood-deals/active"
	endpointClaimsHistory = "/jomfood-deals/claims/history"
	endpointNotifications = "/jomfood/notifications/customer"
)

// Config holds backend API configuration.
type Config struct {
	BaseURL   string
	PageLimit int
	Timeout   time.Duration
}

// Client performs single-page fetches and claim/notification mutations
// against the deals backend. It owns no retry policy beyond the injected
// options; callers decide what a failure means for them.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	retryOpts  common.RetryOptions
	baseURL    string
	pageLimit  int
}

// NewClient creates a backend client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: api base URL is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("%w: api base URL must be http(s): %s", common.ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = model.DefaultPageLimit
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/api",
		pageLimit:  cfg.PageLimit,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default().With("component", "api"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// FetchDeals fetches one page of active deals matching the canonical filter.
func (c *Client) FetchDeals(ctx context.Context, rc RequestContext, filter query.CanonicalFilter, page int) (model.Page[model.Deal], error) {
	return fetchPage[model.Deal](ctx, c, rc, endpointDeals, filter.QueryString(), page)
}

// FetchClaims fetches one page of the customer's claim history.
func (c *Client) FetchClaims(ctx context.Context, rc RequestContext, page int) (model.Page[model.Claim], error) {
	if err := common.ValidateID("customer", rc.CustomerID); err != nil {
		return model.Page[model.Claim]{}, err
	}
	q := url.Values{}
	q.Set("customer_id", rc.CustomerID)
	return fetchPage[model.Claim](ctx, c, rc, endpointClaimsHistory, q.Encode(), page)
}

// FetchNotifications fetches one page of the customer's notifications,
// optionally narrowed to a read status ("read" or "unread").
func (c *Client) FetchNotifications(ctx context.Context, rc RequestContext, page int, status string) (model.Page[model.Notification], error) {
	if err := common.ValidateID("customer", rc.CustomerID); err != nil {
		return model.Page[model.Notification]{}, err
	}
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	endpoint := endpointNotifications + "/" + rc.CustomerID
	return fetchPage[model.Notification](ctx, c, rc, endpoint, q.Encode(), page)
}

// ClaimDeal claims a deal for the customer and returns the new claim.
func (c *Client) ClaimDeal(ctx context.Context, rc RequestContext, dealID string) (*model.Claim, error) {
	if err := common.ValidateID("deal", dealID); err != nil {
		return nil, err
	}
	endpoint := "/jomfood-deals/" + dealID + "/claim"
	return c.mutateClaim(ctx, rc, endpoint, nil)
}

// RescheduleClaim moves a claim's preferred datetime and returns the
// server's updated copy, which may also carry a recomputed expiry.
func (c *Client) RescheduleClaim(ctx context.Context, rc RequestContext, claimID string, preferred time.Time) (*model.Claim, error) {
	if err := common.ValidateID("claim", claimID); err != nil {
		return nil, err
	}
	endpoint := "/jomfood-deals/claims/" + claimID + "/reschedule"
	payload := map[string]string{"preferred_datetime": preferred.Format(time.RFC3339)}
	return c.mutateClaim(ctx, rc, endpoint, payload)
}

// CancelClaim cancels an active claim and returns the server's updated copy.
func (c *Client) CancelClaim(ctx context.Context, rc RequestContext, claimID string) (*model.Claim, error) {
	if err := common.ValidateID("claim", claimID); err != nil {
		return nil, err
	}
	endpoint := "/jomfood-deals/claims/" + claimID + "/cancel"
	return c.mutateClaim(ctx, rc, endpoint, nil)
}

// GetUnreadCount returns the authoritative unread notification count.
func (c *Client) GetUnreadCount(ctx context.Context, rc RequestContext) (int, error) {
	if err := common.ValidateID("customer", rc.CustomerID); err != nil {
		return 0, err
	}
	endpoint := endpointNotifications + "/" + rc.CustomerID + "/unread-count"

	body, err := c.do(ctx, rc, http.MethodGet, endpoint, "", nil, 0)
	if err != nil {
		return 0, err
	}

	count, err := decodeEntity[struct {
		UnreadCount int `json:"unread_count"`
	}](body)
	if err != nil {
		return 0, &common.FetchError{Endpoint: endpoint, Err: err}
	}
	return count.UnreadCount, nil
}

// MarkRead marks a single notification read. Marking an already-read
// notification succeeds as a no-op on the backend.
func (c *Client) MarkRead(ctx context.Context, rc RequestContext, notificationID string) error {
	if err := common.ValidateID("customer", rc.CustomerID); err != nil {
		return err
	}
	if err := common.ValidateID("notification", notificationID); err != nil {
		return err
	}
	endpoint := endpointNotifications + "/" + rc.CustomerID + "/" + notificationID + "/read"
	_, err := c.do(ctx, rc, http.MethodPatch, endpoint, "", nil, 0)
	return err
}

// MarkAllRead marks every notification read for the customer.
func (c *Client) MarkAllRead(ctx context.Context, rc RequestContext) error {
	if err := common.ValidateID("customer", rc.CustomerID); err != nil {
		return err
	}
	endpoint := endpointNotifications + "/" + rc.CustomerID + "/read-all"
	_, err := c.do(ctx, rc, http.MethodPatch, endpoint, "", nil, 0)
	return err
}

// fetchPage issues one GET for the given page and normalizes whatever
// envelope shape comes back. Package-level because methods cannot carry
// type parameters.
func fetchPage[T any](ctx context.Context, c *Client, rc RequestContext, endpoint, rawQuery string, page int) (model.Page[T], error) {
	if page < 1 {
		return model.Page[T]{}, &common.InvalidFilterError{Field: "Page", Reason: "must be >= 1"}
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return model.Page[T]{}, fmt.Errorf("failed to parse query: %w", err)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageLimit))

	body, doErr := c.do(ctx, rc, http.MethodGet, endpoint, q.Encode(), nil, page)
	if doErr != nil {
		return model.Page[T]{}, doErr
	}

	return decodePage[T](body, c.logger, endpoint), nil
}

// mutateClaim POSTs a claim transition and decodes the updated claim.
func (c *Client) mutateClaim(ctx context.Context, rc RequestContext, endpoint string, payload any) (*model.Claim, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	body, err := c.do(ctx, rc, http.MethodPost, endpoint, "", reqBody, 0)
	if err != nil {
		return nil, err
	}

	claim, err := decodeEntity[model.Claim](body)
	if err != nil {
		return nil, &common.FetchError{Endpoint: endpoint, Err: err}
	}
	return claim, nil
}

// do performs one HTTP round-trip with retry on transient failures. The
// lang parameter is appended here so every call is language-negotiated.
func (c *Client) do(ctx context.Context, rc RequestContext, method, endpoint, rawQuery string, reqBody []byte, page int) ([]byte, error) {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	lang := rc.LanguageCode
	if lang == "" {
		lang = "en"
	}
	q.Set("lang", lang)

	fullURL := c.baseURL + endpoint + "?" + q.Encode()

	var respBody []byte
	retryErr := common.WithRetry(ctx, func() error {
		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if reqErr != nil {
			return &common.RetryableError{Err: reqErr, Retryable: false}
		}
		req.Header.Set("Accept", "application/json")
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if rc.AuthToken != "" {
			req.Header.Set("Authorization", "Bearer "+rc.AuthToken)
		}

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return &common.RetryableError{
				Err:       fmt.Errorf("%w: %v", common.ErrAPIConnection, doErr),
				Retryable: true,
			}
		}
		defer func() { _ = resp.Body.Close() }()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &common.RetryableError{Err: readErr, Retryable: true}
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			c.logger.Warn("Rate limit hit, will retry", "endpoint", endpoint)
			return &common.RetryableError{Err: common.ErrAPIRateLimit, Retryable: true}
		case resp.StatusCode >= 500:
			return &common.RetryableError{
				Err:       fmt.Errorf("server error: %d", resp.StatusCode),
				Retryable: true,
			}
		case resp.StatusCode >= 400:
			return &common.RetryableError{
				Err: &common.FetchError{
					Endpoint: endpoint,
					Page:     page,
					Status:   resp.StatusCode,
					Message:  extractServerMessage(body),
					Err:      fmt.Errorf("http %d", resp.StatusCode),
				},
				Retryable: false,
			}
		}

		respBody = body
		return nil
	}, c.retryOpts)

	if retryErr != nil {
		var fetchErr *common.FetchError
		if !errors.As(retryErr, &fetchErr) {
			retryErr = &common.FetchError{Endpoint: endpoint, Page: page, Err: retryErr}
		} else {
			retryErr = fetchErr
		}
		c.logger.Debug("Request failed", "method", method, "endpoint", endpoint, "page", page, "error", retryErr)
		return nil, retryErr
	}

	return respBody, nil
}

// extractServerMessage pulls a human-readable message out of an error body.
func extractServerMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}

// Ensure Client implements every backend surface.
var (
	_ Fetcher         = (*Client)(nil)
	_ ClaimAPI        = (*Client)(nil)
	_ NotificationAPI = (*Client)(nil)
)
