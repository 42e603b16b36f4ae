package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jpmusenge/local-biz-agent/internal/resilience"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api"

	// The API requires a cool-down before a next_page_token becomes valid.
	defaultPageTokenDelay = 2 * time.Second

	// Spacing between sequential detail fetches in a batch.
	defaultDetailDelay = 200 * time.Millisecond

	detailFields = "name,formatted_address,address_components,website,formatted_phone_number,business_status,rating,user_ratings_total,opening_hours"
)

// Option configures the live client.
type Option func(*googleClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *googleClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *googleClient) {
		c.http = hc
	}
}

// WithRateLimit sets the outgoing requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *googleClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageTokenDelay overrides the pagination cool-down.
func WithPageTokenDelay(d time.Duration) Option {
	return func(c *googleClient) {
		c.pageTokenDelay = d
	}
}

// WithDetailDelay overrides the spacing between batched detail fetches.
func WithDetailDelay(d time.Duration) Option {
	return func(c *googleClient) {
		c.detailDelay = d
	}
}

type googleClient struct {
	apiKey         string
	baseURL        string
	http           *http.Client
	limiter        *rate.Limiter
	pageTokenDelay time.Duration
	detailDelay    time.Duration
}

// NewClient creates a live places client. Callers that have no API key
// should construct a mock client instead; see NewMock.
func NewClient(apiKey string, opts ...Option) Client {
	c := &googleClient{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		http:           &http.Client{Timeout: 15 * time.Second},
		limiter:        rate.NewLimiter(10, 1),
		pageTokenDelay: defaultPageTokenDelay,
		detailDelay:    defaultDetailDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *googleClient) InMockMode() bool { return false }

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type nearbySearchResponse struct {
	Status        string `json:"status"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		Vicinity         string  `json:"vicinity"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		BusinessStatus   string  `json:"business_status"`
	} `json:"results"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name              string             `json:"name"`
		FormattedAddress  string             `json:"formatted_address"`
		AddressComponents []addressComponent `json:"address_components"`
		Website           string             `json:"website"`
		Phone             string             `json:"formatted_phone_number"`
		BusinessStatus    string             `json:"business_status"`
		Rating            float64            `json:"rating"`
		UserRatingsTotal  int                `json:"user_ratings_total"`
		OpeningHours      struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}

// SearchBusinesses geocodes the area, then pages through nearby-search
// results until maxResults is reached or the API stops returning pages.
// An error status on the first page is logged and yields an empty result;
// a bad status mid-pagination returns what was gathered so far.
func (c *googleClient) SearchBusinesses(ctx context.Context, area Area, category Category, maxResults int) ([]Place, error) {
	log := zap.L().With(
		zap.String("city", area.City),
		zap.String("state", area.State),
		zap.String("category", category.Key),
	)

	loc, err := c.geocode(ctx, area)
	if err != nil {
		return nil, eris.Wrap(err, "places: geocode area")
	}

	radiusMeters := int(area.RadiusMiles * metersPerMile)
	var places []Place
	pageToken := ""

	for len(places) < maxResults {
		params := url.Values{}
		params.Set("key", c.apiKey)
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		} else {
			params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))
			params.Set("radius", fmt.Sprintf("%d", radiusMeters))
			if category.PlaceType != "" {
				params.Set("type", category.PlaceType)
			}
			if category.Keyword != "" {
				params.Set("keyword", category.Keyword)
			}
		}

		var resp nearbySearchResponse
		if err := c.getJSON(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
			return nil, eris.Wrap(err, "places: nearby search")
		}

		if resp.Status != "OK" {
			if resp.Status == "ZERO_RESULTS" {
				break
			}
			if len(places) > 0 {
				// Mid-pagination failure: keep what we have.
				log.Warn("search pagination aborted", zap.String("status", resp.Status))
				break
			}
			log.Warn("search returned error status", zap.String("status", resp.Status))
			return nil, nil
		}

		for _, r := range resp.Results {
			places = append(places, Place{
				PlaceID:        r.PlaceID,
				Name:           r.Name,
				Address:        r.Vicinity,
				Rating:         r.Rating,
				RatingCount:    r.UserRatingsTotal,
				BusinessStatus: r.BusinessStatus,
			})
			if len(places) >= maxResults {
				break
			}
		}

		if resp.NextPageToken == "" || len(places) >= maxResults {
			break
		}
		pageToken = resp.NextPageToken

		// The next page token needs time to activate server-side.
		select {
		case <-ctx.Done():
			return places, eris.Wrap(ctx.Err(), "places: pagination wait")
		case <-time.After(c.pageTokenDelay):
		}
	}

	return places, nil
}

func (c *googleClient) GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)

	var resp detailsResponse
	if err := c.getJSON(ctx, "/place/details/json", params, &resp); err != nil {
		return nil, eris.Wrapf(err, "places: details %s", placeID)
	}

	switch resp.Status {
	case "OK":
	case "NOT_FOUND", "ZERO_RESULTS":
		return nil, eris.Errorf("places: place not found: %s", placeID)
	case "OVER_QUERY_LIMIT":
		return nil, resilience.NewTransientError(
			eris.Errorf("places: rate limited fetching details for %s", placeID),
			http.StatusTooManyRequests)
	default:
		return nil, resilience.NewPermanentError("getPlaceDetails", 0,
			eris.Errorf("places: details status %s for %s", resp.Status, placeID))
	}

	d := &PlaceDetails{
		PlaceID:        placeID,
		Name:           resp.Result.Name,
		Address:        resp.Result.FormattedAddress,
		Phone:          resp.Result.Phone,
		Website:        resp.Result.Website,
		Rating:         resp.Result.Rating,
		RatingCount:    resp.Result.UserRatingsTotal,
		BusinessStatus: resp.Result.BusinessStatus,
		OpeningHours:   resp.Result.OpeningHours.WeekdayText,
	}
	applyAddressComponents(d, resp.Result.AddressComponents)
	return d, nil
}

func (c *googleClient) GetPlaceDetailsBatch(ctx context.Context, placeIDs []string, onProgress func(done, total int)) ([]PlaceDetails, error) {
	details := make([]PlaceDetails, 0, len(placeIDs))
	for i, id := range placeIDs {
		d, err := c.GetPlaceDetails(ctx, id)
		if err != nil {
			zap.L().Warn("detail fetch failed",
				zap.String("place_id", id),
				zap.Error(err),
			)
		} else {
			details = append(details, *d)
		}

		if onProgress != nil {
			onProgress(i+1, len(placeIDs))
		}

		if i < len(placeIDs)-1 {
			select {
			case <-ctx.Done():
				return details, eris.Wrap(ctx.Err(), "places: batch details wait")
			case <-time.After(c.detailDelay):
			}
		}
	}
	return details, nil
}

func (c *googleClient) geocode(ctx context.Context, area Area) (*latLng, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("address", fmt.Sprintf("%s,%s", area.City, area.State))

	var resp geocodeResponse
	if err := c.getJSON(ctx, "/geocode/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, eris.Errorf("places: geocode status %s for %s, %s", resp.Status, area.City, area.State)
	}
	loc := resp.Results[0].Geometry.Location
	return &loc, nil
}

func (c *googleClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(
				eris.Errorf("status %d: %s", resp.StatusCode, truncateBody(body)),
				resp.StatusCode)
		}
		return resilience.NewPermanentError(path, resp.StatusCode,
			eris.Errorf("status %d: %s", resp.StatusCode, truncateBody(body)))
	}

	return eris.Wrap(json.Unmarshal(body, out), "unmarshal response")
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// applyAddressComponents extracts structured locality fields from the
// API's component list.
func applyAddressComponents(d *PlaceDetails, comps []addressComponent) {
	var streetNumber, route string
	for _, comp := range comps {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.LongName
			case "locality":
				d.City = comp.LongName
			case "administrative_area_level_1":
				d.State = comp.ShortName
			case "administrative_area_level_2":
				d.County = strings.TrimSuffix(comp.LongName, " County")
			case "postal_code":
				d.PostalCode = comp.LongName
			}
		}
	}
	if streetNumber != "" && route != "" {
		d.Street = streetNumber + " " + route
	} else if route != "" {
		d.Street = route
	}
}
