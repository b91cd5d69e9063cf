package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomfood/jomdeals/internal/api"
	"github.com/jomfood/jomdeals/internal/common"
)

const notifID = "64a0000000000000000000dd"

func TestReduce(t *testing.T) {
	tests := []struct {
		name   string
		start  Ledger
		events []Event
		want   Ledger
	}{
		{
			name:   "push bumps the flag without a count",
			events: []Event{{Kind: EventPushArrived}},
			want:   Ledger{UnreadCount: 0, HasUnread: true},
		},
		{
			name:   "poll replaces wholesale",
			start:  Ledger{UnreadCount: 2, HasUnread: true},
			events: []Event{{Kind: EventPollResult, UnreadCount: 7}},
			want:   Ledger{UnreadCount: 7, HasUnread: true},
		},
		{
			name:   "authoritative zero beats an optimistic bump",
			events: []Event{{Kind: EventPushArrived}, {Kind: EventPollResult, UnreadCount: 0}},
			want:   Ledger{UnreadCount: 0, HasUnread: false},
		},
		{
			name:   "mark read never decrements locally",
			start:  Ledger{UnreadCount: 3, HasUnread: true},
			events: []Event{{Kind: EventMarkedRead}},
			want:   Ledger{UnreadCount: 3, HasUnread: true},
		},
		{
			name:   "mark all read waits for the poll",
			start:  Ledger{UnreadCount: 3, HasUnread: true},
			events: []Event{{Kind: EventMarkedAllRead}},
			want:   Ledger{UnreadCount: 3, HasUnread: true},
		},
		{
			name: "mark then poll settles the count",
			start: Ledger{UnreadCount: 3, HasUnread: true},
			events: []Event{
				{Kind: EventMarkedRead},
				{Kind: EventPollResult, UnreadCount: 2},
			},
			want: Ledger{UnreadCount: 2, HasUnread: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := tt.start
			for _, ev := range tt.events {
				ledger = Reduce(ledger, ev)
			}
			assert.Equal(t, tt.want, ledger)
		})
	}
}

func TestPoll_ReplacesLedger(t *testing.T) {
	mock := api.NewMock()
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		return 5, nil
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	require.NoError(t, s.Poll(context.Background()))

	assert.Equal(t, Ledger{UnreadCount: 5, HasUnread: true}, s.Ledger())
}

func TestPoll_FailureKeepsLastKnownGood(t *testing.T) {
	mock := api.NewMock()
	calls := 0
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		calls++
		if calls > 1 {
			return 0, common.ErrAPIConnection
		}
		return 4, nil
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	ctx := context.Background()
	require.NoError(t, s.Poll(ctx))
	require.Equal(t, 4, s.Ledger().UnreadCount)

	err := s.Poll(ctx)
	assert.ErrorIs(t, err, common.ErrAPIConnection)

	// A failed poll never zeroes the badge.
	assert.Equal(t, Ledger{UnreadCount: 4, HasUnread: true}, s.Ledger())
}

func TestHandleForegroundPush(t *testing.T) {
	mock := api.NewMock()
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		return 0, common.ErrAPIConnection
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	s.HandleForegroundPush(context.Background())

	// The poll failed, so the optimistic bump is what remains visible.
	assert.True(t, s.Ledger().HasUnread)
	assert.Equal(t, 1, mock.GetUnreadCountCalls)
}

func TestHandleForegroundPush_PollWins(t *testing.T) {
	mock := api.NewMock()
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		return 0, nil
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	s.HandleForegroundPush(context.Background())

	// The authoritative zero overrides the bump even though it came second.
	assert.Equal(t, Ledger{UnreadCount: 0, HasUnread: false}, s.Ledger())
}

func TestHandleLaunchPush_RecordsNavigationOnce(t *testing.T) {
	mock := api.NewMock()
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	intent := NavigationIntent{NotificationID: notifID, Route: "deals/" + notifID}
	s.HandleLaunchPush(context.Background(), intent)

	got, ok := s.ConsumePendingNavigation()
	require.True(t, ok)
	assert.Equal(t, intent, got)

	_, ok = s.ConsumePendingNavigation()
	assert.False(t, ok, "navigation intent is consumed at most once")
}

func TestConsumePendingNavigation_EmptyWithoutLaunch(t *testing.T) {
	s := NewSync(api.NewMock(), api.RequestContext{}, time.Minute)

	_, ok := s.ConsumePendingNavigation()
	assert.False(t, ok)
}

func TestMarkRead_TriggersFollowUpPoll(t *testing.T) {
	mock := api.NewMock()
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		return 2, nil
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	require.NoError(t, s.MarkRead(context.Background(), notifID))

	assert.Equal(t, 1, mock.MarkReadCalls)
	assert.Equal(t, 1, mock.GetUnreadCountCalls)
	assert.Equal(t, Ledger{UnreadCount: 2, HasUnread: true}, s.Ledger())
}

func TestMarkRead_MalformedID(t *testing.T) {
	mock := api.NewMock()
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	err := s.MarkRead(context.Background(), "bogus")

	var idErr *common.InvalidIDError
	require.ErrorAs(t, err, &idErr)
	assert.Zero(t, mock.MarkReadCalls)
}

func TestMarkRead_FailedFollowUpPollIsNotFatal(t *testing.T) {
	mock := api.NewMock()
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		return 0, common.ErrAPIConnection
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	// The mark itself succeeded; a flaky refresh must not fail the call.
	assert.NoError(t, s.MarkRead(context.Background(), notifID))
}

func TestMarkAllRead(t *testing.T) {
	mock := api.NewMock()
	mock.GetUnreadCountFn = func(_ context.Context, _ api.RequestContext) (int, error) {
		return 0, nil
	}
	s := NewSync(mock, api.RequestContext{}, time.Minute)
	s.HandleForegroundPush(context.Background())

	require.NoError(t, s.MarkAllRead(context.Background()))

	assert.Equal(t, 1, mock.MarkAllReadCalls)
	assert.Equal(t, Ledger{UnreadCount: 0, HasUnread: false}, s.Ledger())
}

func TestMarkAllRead_EmptySetIsNoOp(t *testing.T) {
	mock := api.NewMock()
	s := NewSync(mock, api.RequestContext{}, time.Minute)

	require.NoError(t, s.MarkAllRead(context.Background()))
	assert.Equal(t, Ledger{}, s.Ledger())
}
