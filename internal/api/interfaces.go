// Package api provides the HTTP client for the deals marketplace backend.
package api

import (
	"context"
	"time"

	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/query"
)

// RequestContext carries the per-request ambient state every backend call
// needs. It is passed explicitly rather than read from globals so the
// client is testable with fixed contexts.
type RequestContext struct {
	LanguageCode string
	AuthToken    string
	CustomerID   string
}

// Fetcher is the read side of the backend consumed by page collections.
type Fetcher interface {
	FetchDeals(ctx context.Context, rc RequestContext, filter query.CanonicalFilter, page int) (model.Page[model.Deal], error)
	FetchClaims(ctx context.Context, rc RequestContext, page int) (model.Page[model.Claim], error)
	FetchNotifications(ctx context.Context, rc RequestContext, page int, status string) (model.Page[model.Notification], error)
}

// ClaimAPI is the claim mutation surface used by the lifecycle service.
// Every call is a server round-trip; the returned claim is the new truth.
type ClaimAPI interface {
	ClaimDeal(ctx context.Context, rc RequestContext, dealID string) (*model.Claim, error)
	RescheduleClaim(ctx context.Context, rc RequestContext, claimID string, preferred time.Time) (*model.Claim, error)
	CancelClaim(ctx context.Context, rc RequestContext, claimID string) (*model.Claim, error)
}

// NotificationAPI is the ledger surface used by notification sync.
type NotificationAPI interface {
	GetUnreadCount(ctx context.Context, rc RequestContext) (int, error)
	MarkRead(ctx context.Context, rc RequestContext, notificationID string) error
	MarkAllRead(ctx context.Context, rc RequestContext) error
}
