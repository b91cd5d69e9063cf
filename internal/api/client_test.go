package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomfood/jomdeals/internal/common"
	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/query"
)

const (
	testCustomerID = "64a0000000000000000000aa"
	testDealID     = "64a0000000000000000000bb"
	testClaimID    = "64a0000000000000000000cc"
	testNotifID    = "64a0000000000000000000dd"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, PageLimit: 10, Timeout: 5 * time.Second})
	require.NoError(t, err)

	// No backoff in tests.
	client.retryOpts = common.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	return client, server
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient(Config{BaseURL: "ftp://deals.example.com"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestFetchDeals_RequestShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAuth string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{"items":[{"title":"Laksa Lunch"}],"pagination":{"current_page":2,"total_pages":5,"has_next":true}}}`))
	})

	cf, err := query.Canonicalize(model.FilterSet{SortBy: model.SortNearest, Latitude: 1.23, Longitude: 103.4, RadiusKm: 20})
	require.NoError(t, err)

	rc := RequestContext{LanguageCode: "malay", AuthToken: "tok-123", CustomerID: testCustomerID}
	page, err := client.FetchDeals(context.Background(), rc, cf, 2)
	require.NoError(t, err)

	assert.Equal(t, "/api/jomfood-deals/active", gotPath)
	assert.Equal(t, []string{"malay"}, gotQuery["lang"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"10"}, gotQuery["limit"])
	assert.Equal(t, []string{"nearest"}, gotQuery["sort_by"])
	assert.Equal(t, []string{"1.23"}, gotQuery["lat"])
	assert.Equal(t, "Bearer tok-123", gotAuth)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Laksa Lunch", page.Items[0].Title)
	assert.True(t, page.HasNext())
}

func TestFetchDeals_DefaultLanguage(t *testing.T) {
	var gotLang string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("lang")
		_, _ = w.Write([]byte(`[]`))
	})

	cf, err := query.Canonicalize(model.FilterSet{})
	require.NoError(t, err)

	_, err = client.FetchDeals(context.Background(), RequestContext{}, cf, 1)
	require.NoError(t, err)
	assert.Equal(t, "en", gotLang)
}

func TestFetchDeals_InvalidPage(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[]`))
	})

	cf, err := query.Canonicalize(model.FilterSet{})
	require.NoError(t, err)

	_, err = client.FetchDeals(context.Background(), RequestContext{}, cf, 0)

	var filterErr *common.InvalidFilterError
	require.ErrorAs(t, err, &filterErr)
	assert.Zero(t, calls, "local validation must not reach the network")
}

func TestFetchClaims_MalformedCustomerID(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.FetchClaims(context.Background(), RequestContext{CustomerID: "nope"}, 1)

	var idErr *common.InvalidIDError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "customer", idErr.Kind)
	assert.Zero(t, calls)
}

func TestFetchDeals_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid filter combination"}`))
	})

	cf, err := query.Canonicalize(model.FilterSet{})
	require.NoError(t, err)

	_, err = client.FetchDeals(context.Background(), RequestContext{}, cf, 3)

	var fetchErr *common.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "/jomfood-deals/active", fetchErr.Endpoint)
	assert.Equal(t, 3, fetchErr.Page)
	assert.Equal(t, http.StatusBadRequest, fetchErr.Status)
	assert.Equal(t, "invalid filter combination", fetchErr.Message)
}

func TestFetchDeals_RetriesServerErrors(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"title":"Recovered"}]`))
	})

	cf, err := query.Canonicalize(model.FilterSet{})
	require.NoError(t, err)

	page, err := client.FetchDeals(context.Background(), RequestContext{}, cf, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Recovered", page.Items[0].Title)
}

func TestRescheduleClaim(t *testing.T) {
	var gotPath, gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		_, _ = w.Write([]byte(`{"data":{"_id":"` + testClaimID + `","status":"active"}}`))
	})

	preferred := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	claim, err := client.RescheduleClaim(context.Background(), RequestContext{}, testClaimID, preferred)
	require.NoError(t, err)

	assert.Equal(t, "/api/jomfood-deals/claims/"+testClaimID+"/reschedule", gotPath)
	assert.Contains(t, gotBody, `"preferred_datetime":"2026-09-01T19:30:00Z"`)
	assert.Equal(t, testClaimID, claim.ID)
	assert.Equal(t, model.ClaimStatusActive, claim.Status)
}

func TestCancelClaim_MalformedID(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.CancelClaim(context.Background(), RequestContext{}, "zz")

	var idErr *common.InvalidIDError
	require.ErrorAs(t, err, &idErr)
	assert.Zero(t, calls)
}

func TestGetUnreadCount(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data":{"unread_count":7}}`))
	})

	count, err := client.GetUnreadCount(context.Background(), RequestContext{CustomerID: testCustomerID})
	require.NoError(t, err)

	assert.Equal(t, "/api/jomfood/notifications/customer/"+testCustomerID+"/unread-count", gotPath)
	assert.Equal(t, 7, count)
}

func TestMarkRead(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	rc := RequestContext{CustomerID: testCustomerID}
	require.NoError(t, client.MarkRead(context.Background(), rc, testNotifID))

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/jomfood/notifications/customer/"+testCustomerID+"/"+testNotifID+"/read", gotPath)
}

func TestFetchNotifications_StatusFilter(t *testing.T) {
	var gotStatus string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		_, _ = w.Write([]byte(`{"data":[{"title":"Deal expiring soon","is_read":false}]}`))
	})

	page, err := client.FetchNotifications(context.Background(), RequestContext{CustomerID: testCustomerID}, 1, "unread")
	require.NoError(t, err)

	assert.Equal(t, "unread", gotStatus)
	require.Len(t, page.Items, 1)
	assert.False(t, page.Items[0].IsRead)
}
