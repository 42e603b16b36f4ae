// Package places looks up local businesses through a places API. The live
// client talks to the Google Places web service; the mock client produces
// deterministic offline results and is selected whenever no API key is
// configured.
package places

import "context"

// metersPerMile converts search radii for the API, which takes meters.
const metersPerMile = 1609.34

// Area is a named geographic search region used as a discovery unit.
type Area struct {
	City        string  `json:"city"`
	State       string  `json:"state"`
	RadiusMiles float64 `json:"radius_miles"`
}

// Category scopes a search to one business type. PlaceType maps to the
// API's type parameter, Keyword to its keyword parameter.
type Category struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	PlaceType string `json:"place_type"`
	Keyword   string `json:"keyword"`
}

// DefaultCategories lists the business types the pipeline targets, in the
// order searches run.
var DefaultCategories = []Category{
	{Key: "plumber", Label: "Plumbing", PlaceType: "plumber", Keyword: "plumber"},
	{Key: "electrician", Label: "Electric", PlaceType: "electrician", Keyword: "electrician"},
	{Key: "hvac", Label: "Heating & Cooling", PlaceType: "hvac_contractor", Keyword: "hvac repair"},
	{Key: "landscaping", Label: "Landscaping", PlaceType: "landscaper", Keyword: "landscaping service"},
	{Key: "roofing", Label: "Roofing", PlaceType: "roofing_contractor", Keyword: "roofing contractor"},
	{Key: "auto_repair", Label: "Auto Repair", PlaceType: "car_repair", Keyword: "auto repair shop"},
	{Key: "cleaning", Label: "Cleaning", PlaceType: "house_cleaning_service", Keyword: "cleaning service"},
	{Key: "restaurant", Label: "Restaurant", PlaceType: "restaurant", Keyword: "family restaurant"},
}

// CategoryByKey returns the category with the given key, or false.
func CategoryByKey(key string) (Category, bool) {
	for _, c := range DefaultCategories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// BusinessStatusOperational is the API's value for an open business.
const BusinessStatusOperational = "OPERATIONAL"

// Place is a search result. Search responses never include website
// information; only a details lookup reveals web presence.
type Place struct {
	PlaceID        string  `json:"place_id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Rating         float64 `json:"rating"`
	RatingCount    int     `json:"rating_count"`
	BusinessStatus string  `json:"business_status"`
}

// PlaceDetails is a details lookup result, including the website field.
type PlaceDetails struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Street         string   `json:"street"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	County         string   `json:"county"`
	PostalCode     string   `json:"postal_code"`
	Phone          string   `json:"phone"`
	Website        string   `json:"website"`
	Rating         float64  `json:"rating"`
	RatingCount    int      `json:"rating_count"`
	BusinessStatus string   `json:"business_status"`
	OpeningHours   []string `json:"opening_hours,omitempty"`
}

// HasWebsite reports whether the details carry a non-empty website URL.
func (d *PlaceDetails) HasWebsite() bool {
	return d.Website != ""
}

// Client performs places-lookup operations.
type Client interface {
	// SearchBusinesses finds up to maxResults businesses of the given
	// category within the area.
	SearchBusinesses(ctx context.Context, area Area, category Category, maxResults int) ([]Place, error)

	// GetPlaceDetails fetches full details for one place, including its
	// website field.
	GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)

	// GetPlaceDetailsBatch fetches details sequentially with inter-call
	// spacing, reporting progress after each fetch.
	GetPlaceDetailsBatch(ctx context.Context, placeIDs []string, onProgress func(done, total int)) ([]PlaceDetails, error)

	// InMockMode reports whether the client is the offline deterministic
	// substitute.
	InMockMode() bool
}
