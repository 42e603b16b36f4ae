package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmusenge/local-biz-agent/internal/resilience"
)

func newTestClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithPageTokenDelay(time.Millisecond),
		WithDetailDelay(time.Millisecond),
	)
	return c, srv
}

func geocodeOK(w http.ResponseWriter) {
	fmt.Fprint(w, `{"status":"OK","results":[{"geometry":{"location":{"lat":39.78,"lng":-89.65}}}]}`)
}

func TestSearchBusinessesPaginates(t *testing.T) {
	var nearbyCalls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geocode/json":
			geocodeOK(w)
		case "/place/nearbysearch/json":
			call := atomic.AddInt32(&nearbyCalls, 1)
			if call == 1 {
				assert.Equal(t, "plumber", r.URL.Query().Get("type"))
				assert.NotEmpty(t, r.URL.Query().Get("radius"))
				fmt.Fprint(w, `{"status":"OK","next_page_token":"tok-2","results":[
					{"place_id":"p1","name":"First Plumbing","vicinity":"1 Main St","rating":4.5,"user_ratings_total":20,"business_status":"OPERATIONAL"},
					{"place_id":"p2","name":"Second Plumbing","vicinity":"2 Main St","rating":4.0,"user_ratings_total":8,"business_status":"OPERATIONAL"}
				]}`)
			} else {
				assert.Equal(t, "tok-2", r.URL.Query().Get("pagetoken"))
				fmt.Fprint(w, `{"status":"OK","results":[
					{"place_id":"p3","name":"Third Plumbing","vicinity":"3 Main St","rating":3.8,"user_ratings_total":5,"business_status":"CLOSED_PERMANENTLY"}
				]}`)
			}
		default:
			http.NotFound(w, r)
		}
	})

	c, _ := newTestClient(t, handler)
	cat, _ := CategoryByKey("plumber")
	places, err := c.SearchBusinesses(context.Background(), Area{City: "Springfield", State: "IL", RadiusMiles: 5}, cat, 10)
	require.NoError(t, err)
	require.Len(t, places, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&nearbyCalls))
	assert.Equal(t, "p1", places[0].PlaceID)
	assert.Equal(t, "CLOSED_PERMANENTLY", places[2].BusinessStatus)
}

func TestSearchBusinessesRespectsMaxResults(t *testing.T) {
	var nearbyCalls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geocode/json":
			geocodeOK(w)
		case "/place/nearbysearch/json":
			atomic.AddInt32(&nearbyCalls, 1)
			fmt.Fprint(w, `{"status":"OK","next_page_token":"tok","results":[
				{"place_id":"a","name":"A"},{"place_id":"b","name":"B"},{"place_id":"c","name":"C"}
			]}`)
		default:
			http.NotFound(w, r)
		}
	})

	c, _ := newTestClient(t, handler)
	cat, _ := CategoryByKey("hvac")
	places, err := c.SearchBusinesses(context.Background(), Area{City: "Boise", State: "ID", RadiusMiles: 10}, cat, 2)
	require.NoError(t, err)
	assert.Len(t, places, 2)
	// A second page is never requested once the cap is reached.
	assert.Equal(t, int32(1), atomic.LoadInt32(&nearbyCalls))
}

func TestSearchBusinessesZeroResults(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/geocode/json" {
			geocodeOK(w)
			return
		}
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	})

	c, _ := newTestClient(t, handler)
	cat, _ := CategoryByKey("roofing")
	places, err := c.SearchBusinesses(context.Background(), Area{City: "Peoria", State: "IL", RadiusMiles: 5}, cat, 10)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestSearchBusinessesErrorStatusFirstPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/geocode/json" {
			geocodeOK(w)
			return
		}
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","results":[]}`)
	})

	c, _ := newTestClient(t, handler)
	cat, _ := CategoryByKey("cleaning")
	places, err := c.SearchBusinesses(context.Background(), Area{City: "Madison", State: "WI", RadiusMiles: 5}, cat, 10)
	require.NoError(t, err)
	assert.Nil(t, places)
}

func TestSearchBusinessesKeepsPartialOnMidPaginationFailure(t *testing.T) {
	var nearbyCalls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geocode/json":
			geocodeOK(w)
		case "/place/nearbysearch/json":
			if atomic.AddInt32(&nearbyCalls, 1) == 1 {
				fmt.Fprint(w, `{"status":"OK","next_page_token":"tok","results":[{"place_id":"p1","name":"Only One"}]}`)
			} else {
				fmt.Fprint(w, `{"status":"INVALID_REQUEST","results":[]}`)
			}
		}
	})

	c, _ := newTestClient(t, handler)
	cat, _ := CategoryByKey("landscaping")
	places, err := c.SearchBusinesses(context.Background(), Area{City: "Springfield", State: "IL", RadiusMiles: 5}, cat, 10)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "p1", places[0].PlaceID)
}

func TestSearchBusinessesGeocodeFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	})

	c, _ := newTestClient(t, handler)
	cat, _ := CategoryByKey("plumber")
	_, err := c.SearchBusinesses(context.Background(), Area{City: "Atlantis", State: "XX", RadiusMiles: 5}, cat, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode")
}

func TestGetPlaceDetailsParsesComponents(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/details/json", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("place_id"))
		fmt.Fprint(w, `{"status":"OK","result":{
			"name":"Ace Plumbing",
			"formatted_address":"123 Oak St, Springfield, IL 62701, USA",
			"website":"https://aceplumbing.example.com",
			"formatted_phone_number":"(217) 555-0100",
			"business_status":"OPERATIONAL",
			"rating":4.6,
			"user_ratings_total":31,
			"address_components":[
				{"long_name":"123","short_name":"123","types":["street_number"]},
				{"long_name":"Oak Street","short_name":"Oak St","types":["route"]},
				{"long_name":"Springfield","short_name":"Springfield","types":["locality","political"]},
				{"long_name":"Sangamon County","short_name":"Sangamon County","types":["administrative_area_level_2","political"]},
				{"long_name":"Illinois","short_name":"IL","types":["administrative_area_level_1","political"]},
				{"long_name":"62701","short_name":"62701","types":["postal_code"]}
			],
			"opening_hours":{"weekday_text":["Monday: 8AM-5PM"]}
		}}`)
	})

	c, _ := newTestClient(t, handler)
	d, err := c.GetPlaceDetails(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ace Plumbing", d.Name)
	assert.Equal(t, "123 Oak Street", d.Street)
	assert.Equal(t, "Springfield", d.City)
	assert.Equal(t, "IL", d.State)
	assert.Equal(t, "Sangamon", d.County)
	assert.Equal(t, "62701", d.PostalCode)
	assert.True(t, d.HasWebsite())
	assert.Equal(t, []string{"Monday: 8AM-5PM"}, d.OpeningHours)
}

func TestGetPlaceDetailsNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"NOT_FOUND"}`)
	})

	c, _ := newTestClient(t, handler)
	_, err := c.GetPlaceDetails(context.Background(), "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetPlaceDetailsOverQueryLimitIsTransient(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OVER_QUERY_LIMIT"}`)
	})

	c, _ := newTestClient(t, handler)
	_, err := c.GetPlaceDetails(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGetPlaceDetailsServerErrorIsTransient(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c, _ := newTestClient(t, handler)
	_, err := c.GetPlaceDetails(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGetPlaceDetailsBatchSkipsFailures(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("place_id") == "bad" {
			fmt.Fprint(w, `{"status":"NOT_FOUND"}`)
			return
		}
		fmt.Fprint(w, `{"status":"OK","result":{"name":"Kept","formatted_address":"1 Main St"}}`)
	})

	c, _ := newTestClient(t, handler)
	var progress []int
	details, err := c.GetPlaceDetailsBatch(context.Background(), []string{"ok-1", "bad", "ok-2"}, func(done, total int) {
		progress = append(progress, done)
	})
	require.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","result":{"name":"Fast"}}`)
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(50),
		WithDetailDelay(0),
	)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetPlaceDetails(context.Background(), "p1")
		require.NoError(t, err)
	}
	// At 50 rps with burst 1 the second and third calls each wait 20ms.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
