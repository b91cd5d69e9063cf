package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jomfood/jomdeals/internal/api"
	"github.com/jomfood/jomdeals/internal/common"
)

// NavigationIntent is the one-shot payload recorded when the app is
// launched via a notification tap, consumed once routing is ready.
type NavigationIntent struct {
	NotificationID string
	Route          string
}

// Sync owns the notification ledger and reconciles its three event
// sources: foreground pushes, launch pushes, and the authoritative poll.
type Sync struct {
	api        api.NotificationAPI
	logger     *slog.Logger
	pendingNav *NavigationIntent
	rc         api.RequestContext
	ledger     Ledger
	interval   time.Duration
	mu         sync.Mutex
}

// NewSync creates a notification sync service polling on the given interval.
func NewSync(notificationAPI api.NotificationAPI, rc api.RequestContext, interval time.Duration) *Sync {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sync{
		api:      notificationAPI,
		rc:       rc,
		interval: interval,
		logger:   slog.Default().With("component", "notify"),
	}
}

// Ledger returns the current unread state.
func (s *Sync) Ledger() Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger
}

// Poll asks the backend for the authoritative unread count and replaces
// the ledger wholesale. A failed poll keeps the last-known-good state; it
// never resets the count to zero.
func (s *Sync) Poll(ctx context.Context) error {
	count, err := s.api.GetUnreadCount(ctx, s.rc)
	if err != nil {
		s.logger.Warn("Unread-count poll failed, keeping last-known state", "error", err)
		return err
	}

	s.mu.Lock()
	s.ledger = Reduce(s.ledger, Event{Kind: EventPollResult, UnreadCount: count})
	s.mu.Unlock()
	return nil
}

// HandleForegroundPush handles a push arriving while the app is open:
// the unread flag bumps immediately, then an authoritative poll follows.
func (s *Sync) HandleForegroundPush(ctx context.Context) {
	s.mu.Lock()
	s.ledger = Reduce(s.ledger, Event{Kind: EventPushArrived})
	s.mu.Unlock()

	// Best effort; the next scheduled poll corrects any miss.
	_ = s.Poll(ctx)
}

// HandleLaunchPush handles the app being opened via a notification tap:
// same optimistic bump, plus a pending-navigation payload for the caller
// to route the user once it is ready.
func (s *Sync) HandleLaunchPush(ctx context.Context, intent NavigationIntent) {
	s.mu.Lock()
	s.ledger = Reduce(s.ledger, Event{Kind: EventPushArrived})
	s.pendingNav = &intent
	s.mu.Unlock()

	_ = s.Poll(ctx)
}

// ConsumePendingNavigation returns the recorded navigation payload at most
// once.
func (s *Sync) ConsumePendingNavigation() (NavigationIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingNav == nil {
		return NavigationIntent{}, false
	}
	intent := *s.pendingNav
	s.pendingNav = nil
	return intent, true
}

// MarkRead marks one notification read. Marking an already-read
// notification is a no-op from the caller's perspective. The count is
// refreshed by a follow-up poll, never decremented locally.
func (s *Sync) MarkRead(ctx context.Context, notificationID string) error {
	if err := common.ValidateID("notification", notificationID); err != nil {
		return err
	}

	if err := s.api.MarkRead(ctx, s.rc, notificationID); err != nil {
		return err
	}

	s.mu.Lock()
	s.ledger = Reduce(s.ledger, Event{Kind: EventMarkedRead})
	s.mu.Unlock()

	if err := s.Poll(ctx); err != nil {
		s.logger.Warn("Post-mark poll failed", "notification_id", notificationID, "error", err)
	}
	return nil
}

// MarkAllRead marks every notification read; marking an empty set
// succeeds as a no-op.
func (s *Sync) MarkAllRead(ctx context.Context) error {
	if err := s.api.MarkAllRead(ctx, s.rc); err != nil {
		return err
	}

	s.mu.Lock()
	s.ledger = Reduce(s.ledger, Event{Kind: EventMarkedAllRead})
	s.mu.Unlock()

	if err := s.Poll(ctx); err != nil {
		s.logger.Warn("Post-mark poll failed", "error", err)
	}
	return nil
}

// Run polls immediately and then on the fixed interval until ctx is
// cancelled. Callers should also invoke Poll on app-foreground.
func (s *Sync) Run(ctx context.Context) {
	_ = s.Poll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Poll(ctx)
		}
	}
}
