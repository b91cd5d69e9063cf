package api

import (
	"context"
	"time"

	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/query"
)

// Mock is a test double for every backend surface. Tests set the Fn
// fields to control behavior; call counters record what was invoked.
type Mock struct {
	FetchDealsFn         func(ctx context.Context, rc RequestContext, filter query.CanonicalFilter, page int) (model.Page[model.Deal], error)
	FetchClaimsFn        func(ctx context.Context, rc RequestContext, page int) (model.Page[model.Claim], error)
	FetchNotificationsFn func(ctx context.Context, rc RequestContext, page int, status string) (model.Page[model.Notification], error)
	ClaimDealFn          func(ctx context.Context, rc RequestContext, dealID string) (*model.Claim, error)
	RescheduleClaimFn    func(ctx context.Context, rc RequestContext, claimID string, preferred time.Time) (*model.Claim, error)
	CancelClaimFn        func(ctx context.Context, rc RequestContext, claimID string) (*model.Claim, error)
	GetUnreadCountFn     func(ctx context.Context, rc RequestContext) (int, error)
	MarkReadFn           func(ctx context.Context, rc RequestContext, notificationID string) error
	MarkAllReadFn        func(ctx context.Context, rc RequestContext) error

	FetchDealsCalls         int
	FetchClaimsCalls        int
	FetchNotificationsCalls int
	ClaimDealCalls          int
	RescheduleClaimCalls    int
	CancelClaimCalls        int
	GetUnreadCountCalls     int
	MarkReadCalls           int
	MarkAllReadCalls        int
}

// NewMock creates a mock backend client.
func NewMock() *Mock {
	return &Mock{}
}

// FetchDeals implements Fetcher.
func (m *Mock) FetchDeals(ctx context.Context, rc RequestContext, filter query.CanonicalFilter, page int) (model.Page[model.Deal], error) {
	m.FetchDealsCalls++
	if m.FetchDealsFn != nil {
		return m.FetchDealsFn(ctx, rc, filter, page)
	}
	return model.Page[model.Deal]{}, nil
}

// FetchClaims implements Fetcher.
func (m *Mock) FetchClaims(ctx context.Context, rc RequestContext, page int) (model.Page[model.Claim], error) {
	m.FetchClaimsCalls++
	if m.FetchClaimsFn != nil {
		return m.FetchClaimsFn(ctx, rc, page)
	}
	return model.Page[model.Claim]{}, nil
}

// FetchNotifications implements Fetcher.
func (m *Mock) FetchNotifications(ctx context.Context, rc RequestContext, page int, status string) (model.Page[model.Notification], error) {
	m.FetchNotificationsCalls++
	if m.FetchNotificationsFn != nil {
		return m.FetchNotificationsFn(ctx, rc, page, status)
	}
	return model.Page[model.Notification]{}, nil
}

// ClaimDeal implements ClaimAPI.
func (m *Mock) ClaimDeal(ctx context.Context, rc RequestContext, dealID string) (*model.Claim, error) {
	m.ClaimDealCalls++
	if m.ClaimDealFn != nil {
		return m.ClaimDealFn(ctx, rc, dealID)
	}
	return &model.Claim{DealID: dealID, Status: model.ClaimStatusActive}, nil
}

// RescheduleClaim implements ClaimAPI.
func (m *Mock) RescheduleClaim(ctx context.Context, rc RequestContext, claimID string, preferred time.Time) (*model.Claim, error) {
	m.RescheduleClaimCalls++
	if m.RescheduleClaimFn != nil {
		return m.RescheduleClaimFn(ctx, rc, claimID, preferred)
	}
	return &model.Claim{ID: claimID, Status: model.ClaimStatusActive, PreferredDatetime: &preferred}, nil
}

// CancelClaim implements ClaimAPI.
func (m *Mock) CancelClaim(ctx context.Context, rc RequestContext, claimID string) (*model.Claim, error) {
	m.CancelClaimCalls++
	if m.CancelClaimFn != nil {
		return m.CancelClaimFn(ctx, rc, claimID)
	}
	return &model.Claim{ID: claimID, Status: model.ClaimStatusCancelled}, nil
}

// GetUnreadCount implements NotificationAPI.
func (m *Mock) GetUnreadCount(ctx context.Context, rc RequestContext) (int, error) {
	m.GetUnreadCountCalls++
	if m.GetUnreadCountFn != nil {
		return m.GetUnreadCountFn(ctx, rc)
	}
	return 0, nil
}

// MarkRead implements NotificationAPI.
func (m *Mock) MarkRead(ctx context.Context, rc RequestContext, notificationID string) error {
	m.MarkReadCalls++
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, rc, notificationID)
	}
	return nil
}

// MarkAllRead implements NotificationAPI.
func (m *Mock) MarkAllRead(ctx context.Context, rc RequestContext) error {
	m.MarkAllReadCalls++
	if m.MarkAllReadFn != nil {
		return m.MarkAllReadFn(ctx, rc)
	}
	return nil
}

// Reset clears all call tracking.
func (m *Mock) Reset() {
	*m = Mock{}
}

// Ensure Mock implements every backend surface.
var (
	_ Fetcher         = (*Mock)(nil)
	_ ClaimAPI        = (*Mock)(nil)
	_ NotificationAPI = (*Mock)(nil)
)
