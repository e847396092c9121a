package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casimadrid/casi-cli/internal/resilience"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.reviews")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.googleMapsUri")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cafeterías para trabajar en Madrid", body.TextQuery)
		assert.Equal(t, "es", body.LanguageCode)
		assert.Equal(t, 20, body.MaxResultCount)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{
			Places: []Place{
				{
					ID:               "ChIJ-toma",
					DisplayName:      DisplayName{Text: "Toma Café 1"},
					FormattedAddress: "C. de la Palma, 49, Centro, 28004 Madrid",
					Rating:           4.6,
					PriceLevel:       "PRICE_LEVEL_MODERATE",
					Reviews: []Review{
						{Rating: 5, Text: DisplayName{Text: "Buen wifi y enchufes"}},
					},
					Location:      &LatLng{Latitude: 40.4262, Longitude: -3.7065},
					GoogleMapsURI: "https://maps.google.com/?cid=123",
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		TextQuery:    "cafeterías para trabajar en Madrid",
		LanguageCode: "es",
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Toma Café 1", p.DisplayName.Text)
	assert.InDelta(t, 4.6, p.Rating, 0.001)
	assert.Equal(t, "PRICE_LEVEL_MODERATE", p.PriceLevel)
	require.Len(t, p.Reviews, 1)
	assert.Equal(t, "Buen wifi y enchufes", p.Reviews[0].Body())
	require.NotNil(t, p.Location)
	assert.InDelta(t, -3.7065, p.Location.Longitude, 0.0001)
	assert.Equal(t, "https://maps.google.com/?cid=123", p.GoogleMapsURI)
}

func TestTextSearch_ClampsResultCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, MaxResultCount, body.MaxResultCount)
		_, _ = w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "q", MaxResultCount: 50})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestTextSearch_MissingKey(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "q"})

	assert.Nil(t, resp)
	assert.True(t, resilience.IsConfiguration(err))
	assert.Zero(t, hits.Load(), "no request should reach the network")
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "q"})

	assert.Nil(t, resp)
	var ue *resilience.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
	assert.Contains(t, ue.Body, "invalid API key")
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(ctx, TextSearchRequest{TextQuery: "q"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestReview_BodyFallsBackToOriginal(t *testing.T) {
	r := Review{OriginalText: DisplayName{Text: "  Good coffee  "}}
	assert.Equal(t, "Good coffee", r.Body())
}
