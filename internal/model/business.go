// Package model defines the entities tracked by the pipeline and the
// business lifecycle state machine.
package model

import "time"

// BusinessStatus is a stage in the business lifecycle. Statuses form a
// linear progression; a record never moves backwards.
type BusinessStatus string

const (
	StatusDiscovered       BusinessStatus = "discovered"
	StatusEnriched         BusinessStatus = "enriched"
	StatusWebsiteGenerated BusinessStatus = "website_generated"
	StatusDeployed         BusinessStatus = "deployed"
	StatusContacted        BusinessStatus = "contacted"
	StatusSold             BusinessStatus = "sold"
)

// statusRank orders the lifecycle. Enrichment is optional: a record may go
// straight from discovered to website_generated.
var statusRank = map[BusinessStatus]int{
	StatusDiscovered:       0,
	StatusEnriched:         1,
	StatusWebsiteGenerated: 2,
	StatusDeployed:         3,
	StatusContacted:        4,
	StatusSold:             5,
}

// AllStatuses lists every lifecycle status in order. Stats reporting keys
// off this so all six buckets are always present.
var AllStatuses = []BusinessStatus{
	StatusDiscovered,
	StatusEnriched,
	StatusWebsiteGenerated,
	StatusDeployed,
	StatusContacted,
	StatusSold,
}

// Valid reports whether s is a known lifecycle status.
func (s BusinessStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Advances reports whether moving from one status to another is a forward
// transition. Equal or backward moves return false, so writes guarded by
// this check keep status monotonic.
func Advances(from, to BusinessStatus) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr > fr
}

// Business is one discovered real-world business.
type Business struct {
	ID            string         `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Category      string         `json:"category" db:"category"`
	Address       string         `json:"address,omitempty" db:"address"`
	City          string         `json:"city,omitempty" db:"city"`
	State         string         `json:"state,omitempty" db:"state"`
	County        string         `json:"county,omitempty" db:"county"`
	Phone         string         `json:"phone,omitempty" db:"phone"`
	Email         string         `json:"email,omitempty" db:"email"`
	WebsiteURL    *string        `json:"website_url,omitempty" db:"website_url"`
	HasWebsite    bool           `json:"has_website" db:"has_website"`
	Source        string         `json:"source" db:"source"`
	SourceID      string         `json:"source_id,omitempty" db:"source_id"`
	GooglePlaceID string         `json:"google_place_id,omitempty" db:"google_place_id"`
	Status        BusinessStatus `json:"status" db:"status"`
	DiscoveredAt  time.Time      `json:"discovered_at" db:"discovered_at"`
	EnrichedAt    *time.Time     `json:"enriched_at,omitempty" db:"enriched_at"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}
