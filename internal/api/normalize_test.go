package api

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomfood/jomdeals/internal/model"
)

func TestDecodePage_Shapes(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name           string
		body           string
		wantTitles     []string
		wantPagination bool
	}{
		{
			name: "double wrapped envelope",
			body: `{"data":{"data":{"items":[{"_id":"64a000000000000000000001","title":"Laksa Lunch"}],"pagination":{"current_page":1,"total_pages":3,"has_next":true}}}}`,
			wantTitles:     []string{"Laksa Lunch"},
			wantPagination: true,
		},
		{
			name: "single wrapped envelope",
			body: `{"data":{"items":[{"_id":"64a000000000000000000002","title":"Roti Set"}],"pagination":{"current_page":2,"total_pages":2,"has_next":false}}}`,
			wantTitles:     []string{"Roti Set"},
			wantPagination: true,
		},
		{
			name:       "data holding a bare list",
			body:       `{"data":[{"_id":"64a000000000000000000003","title":"Satay Night"}]}`,
			wantTitles: []string{"Satay Night"},
		},
		{
			name:       "bare list",
			body:       `[{"_id":"64a000000000000000000004","title":"Teh Tarik Combo"}]`,
			wantTitles: []string{"Teh Tarik Combo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := decodePage[model.Deal]([]byte(tt.body), logger, "/test")

			require.Len(t, page.Items, len(tt.wantTitles))
			for i, title := range tt.wantTitles {
				assert.Equal(t, title, page.Items[i].Title)
			}
			if tt.wantPagination {
				require.NotNil(t, page.Pagination)
			} else {
				assert.Nil(t, page.Pagination)
			}
		})
	}
}

func TestDecodePage_ShapePriority(t *testing.T) {
	// A double-wrapped body must not be half-read by a looser matcher.
	body := `{"data":{"data":{"items":[{"title":"Inner"}],"pagination":{"current_page":1,"total_pages":1,"has_next":false}}}}`

	page := decodePage[model.Deal]([]byte(body), slog.Default(), "/test")

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Inner", page.Items[0].Title)
	require.NotNil(t, page.Pagination)
	assert.False(t, page.Pagination.HasNext)
}

func TestDecodePage_MalformedFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unrecognized object", body: `{"surprise":true}`},
		{name: "scalar", body: `42`},
		{name: "garbage", body: `not json at all`},
		{name: "items of the wrong type", body: `{"data":{"items":[17],"pagination":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must degrade, never panic or error: a malformed-but-200
			// response shows an empty state instead of crashing the list.
			page := decodePage[model.Deal]([]byte(tt.body), slog.Default(), "/test")

			assert.Empty(t, page.Items)
			assert.Nil(t, page.Pagination)
			assert.False(t, page.HasNext())
		})
	}
}

func TestDecodeEntity_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "double wrapped", body: `{"data":{"data":{"_id":"64a000000000000000000009","status":"active"}}}`},
		{name: "wrapped", body: `{"data":{"_id":"64a000000000000000000009","status":"active"}}`},
		{name: "bare", body: `{"_id":"64a000000000000000000009","status":"active"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim, err := decodeEntity[model.Claim]([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, "64a000000000000000000009", claim.ID)
			assert.Equal(t, model.ClaimStatusActive, claim.Status)
		})
	}
}
