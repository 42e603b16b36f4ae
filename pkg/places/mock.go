package places

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// mockPrefixes seed deterministic business names per category.
var mockPrefixes = []string{
	"Ace", "Summit", "Riverside", "Premier", "Family",
	"Metro", "Golden", "Blue Sky", "Cornerstone", "Heritage",
}

// mockCoordinates approximates a few known cities; anything else falls
// back to the default.
var mockCoordinates = map[string]struct{ lat, lng float64 }{
	"springfield,il": {39.7817, -89.6501},
	"peoria,il":      {40.6936, -89.5890},
	"madison,wi":     {43.0731, -89.4012},
	"boise,id":       {43.6150, -116.2023},
	"chattanooga,tn": {35.0456, -85.3097},
}

var defaultCoordinate = struct{ lat, lng float64 }{39.8283, -98.5795}

// MockClient is the deterministic offline substitute for the live places
// client. Website presence for a mock place is computed from the numeric
// suffix of its ID: suffix % 5 < 3 reports a website, the rest do not.
type MockClient struct {
	// searched remembers places handed out by SearchBusinesses so detail
	// lookups can echo consistent locality data.
	searched map[string]mockSeen
}

type mockSeen struct {
	name string
	area Area
}

// NewMock creates a mock places client.
func NewMock() *MockClient {
	return &MockClient{searched: make(map[string]mockSeen)}
}

func (m *MockClient) InMockMode() bool { return true }

func (m *MockClient) SearchBusinesses(ctx context.Context, area Area, category Category, maxResults int) ([]Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := maxResults
	if n > len(mockPrefixes) {
		n = len(mockPrefixes)
	}

	zap.L().Debug("mock places search",
		zap.String("city", area.City),
		zap.String("category", category.Key),
		zap.Int("results", n),
	)

	places := make([]Place, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("mock-%s-%d", category.Key, i)
		name := fmt.Sprintf("%s %s", mockPrefixes[i], category.Label)
		m.searched[id] = mockSeen{name: name, area: area}

		places = append(places, Place{
			PlaceID:        id,
			Name:           name,
			Address:        fmt.Sprintf("%d Main St, %s, %s", 100+i, area.City, area.State),
			Rating:         3.5 + 0.15*float64(i%10),
			RatingCount:    10 + 7*i,
			BusinessStatus: BusinessStatusOperational,
		})
	}
	return places, nil
}

func (m *MockClient) GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := mockIndex(placeID)
	seen, ok := m.searched[placeID]
	if !ok {
		seen = mockSeen{
			name: fmt.Sprintf("Mock Business %d", idx),
			area: Area{City: "Springfield", State: "IL"},
		}
	}

	d := &PlaceDetails{
		PlaceID:        placeID,
		Name:           seen.name,
		Street:         fmt.Sprintf("%d Main St", 100+idx),
		Address:        fmt.Sprintf("%d Main St, %s, %s", 100+idx, seen.area.City, seen.area.State),
		City:           seen.area.City,
		State:          seen.area.State,
		PostalCode:     fmt.Sprintf("%05d", 60000+idx),
		Phone:          fmt.Sprintf("(555) 010-%04d", idx),
		Rating:         3.5 + 0.15*float64(idx%10),
		RatingCount:    10 + 7*idx,
		BusinessStatus: BusinessStatusOperational,
	}

	if idx%5 < 3 {
		d.Website = fmt.Sprintf("https://www.%s.example.com", slugify(seen.name))
	}
	return d, nil
}

func (m *MockClient) GetPlaceDetailsBatch(ctx context.Context, placeIDs []string, onProgress func(done, total int)) ([]PlaceDetails, error) {
	details := make([]PlaceDetails, 0, len(placeIDs))
	for i, id := range placeIDs {
		d, err := m.GetPlaceDetails(ctx, id)
		if err != nil {
			return details, err
		}
		details = append(details, *d)
		if onProgress != nil {
			onProgress(i+1, len(placeIDs))
		}
	}
	return details, nil
}

// Coordinate returns the mock geocoding result for an area.
func (m *MockClient) Coordinate(area Area) (lat, lng float64) {
	key := strings.ToLower(area.City) + "," + strings.ToLower(area.State)
	if c, ok := mockCoordinates[key]; ok {
		return c.lat, c.lng
	}
	return defaultCoordinate.lat, defaultCoordinate.lng
}

// mockIndex extracts the trailing number from a mock place ID.
func mockIndex(placeID string) int {
	i := strings.LastIndex(placeID, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(placeID[i+1:])
	if err != nil {
		return 0
	}
	return n
}

func slugify(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
