// Package claims implements the claim state machine and its server-backed
// transitions. Guards run locally before any network call; terminal states
// admit no transition at all.
package claims

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jomfood/jomdeals/internal/api"
	"github.com/jomfood/jomdeals/internal/common"
	"github.com/jomfood/jomdeals/internal/model"
)

// HistoryPrefix is the cache-key prefix for claim-history listings.
// Mutations invalidate this family rather than patching cached pages, so
// the collection stays the single source of truth for what pages contain.
const HistoryPrefix = "claims:"

// ErrPastDatetime rejects a reschedule into the past before any I/O.
var ErrPastDatetime = errors.New("preferred datetime must be in the future")

// Invalidator is the slice of the page cache a claim mutation expires.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Store is the local read-through copy of claims.
type Store interface {
	SaveClaim(ctx context.Context, claim *model.Claim) error
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
}

// Service drives claim lifecycle transitions. Every mutation is confirmed
// by the server before the local copy updates; no terminal state is ever
// committed optimistically.
type Service struct {
	api    api.ClaimAPI
	store  Store
	cache  Invalidator
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a claim lifecycle service.
func NewService(claimAPI api.ClaimAPI, store Store, cache Invalidator) *Service {
	return &Service{
		api:    claimAPI,
		store:  store,
		cache:  cache,
		now:    time.Now,
		logger: slog.Default().With("component", "claims"),
	}
}

// ClaimDeal claims a deal and records the server's new claim locally.
func (s *Service) ClaimDeal(ctx context.Context, rc api.RequestContext, dealID string) (*model.Claim, error) {
	if err := common.ValidateID("deal", dealID); err != nil {
		return nil, err
	}

	claim, err := s.api.ClaimDeal(ctx, rc, dealID)
	if err != nil {
		return nil, s.surface(err, "failed to claim deal")
	}

	s.commit(ctx, claim)
	return claim, nil
}

// Reschedule moves an active claim's preferred datetime. The server may
// also recompute the expiry, so the claim-history cache is invalidated
// rather than locally patched.
func (s *Service) Reschedule(ctx context.Context, rc api.RequestContext, claimID string, preferred time.Time) (*model.Claim, error) {
	if _, err := s.guard(ctx, claimID, "reschedule"); err != nil {
		return nil, err
	}
	if !preferred.After(s.now()) {
		return nil, ErrPastDatetime
	}

	claim, err := s.api.RescheduleClaim(ctx, rc, claimID, preferred)
	if err != nil {
		return nil, s.surface(err, "failed to reschedule claim")
	}

	s.commit(ctx, claim)
	return claim, nil
}

// Cancel cancels an active claim. This is irreversible, so callers must
// confirm with the user first; the precondition check here is the real
// invariant and rejects cancel-of-non-active regardless of the caller.
func (s *Service) Cancel(ctx context.Context, rc api.RequestContext, claimID string) (*model.Claim, error) {
	if _, err := s.guard(ctx, claimID, "cancel"); err != nil {
		return nil, err
	}

	claim, err := s.api.CancelClaim(ctx, rc, claimID)
	if err != nil {
		return nil, s.surface(err, "failed to cancel claim")
	}

	s.commit(ctx, claim)
	return claim, nil
}

// guard validates the claim ID and checks the transition precondition
// against the local copy. It never touches the network.
func (s *Service) guard(ctx context.Context, claimID, attempted string) (*model.Claim, error) {
	if err := common.ValidateID("claim", claimID); err != nil {
		return nil, err
	}

	claim, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != model.ClaimStatusActive {
		return nil, &common.InvalidTransitionError{
			ClaimID:   claimID,
			From:      string(claim.Status),
			Attempted: attempted,
		}
	}
	return claim, nil
}

// commit stores the server-confirmed claim and expires cached history
// listings so they refetch with the new status.
func (s *Service) commit(ctx context.Context, claim *model.Claim) {
	if err := s.store.SaveClaim(ctx, claim); err != nil {
		s.logger.Warn("Failed to save claim copy", "claim_id", claim.ID, "error", err)
	}
	s.cache.InvalidatePrefix(HistoryPrefix)
}

// surface prefers the server-provided message when the backend sent one,
// else falls back to a generic message keyed by the attempted transition.
func (s *Service) surface(err error, fallback string) error {
	var fetchErr *common.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Message != "" {
		return common.NewUserError(fetchErr.Message, err)
	}
	return common.NewUserError(fallback, err)
}
