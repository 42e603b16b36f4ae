// Package store provides durable state for the pipeline. It is the single
// source of truth for pipeline progress: each stage reads its work queue
// from here and writes the next state back.
package store

import (
	"context"
	"errors"

	"github.com/jpmusenge/local-biz-agent/internal/model"
)

// Sentinel errors. Storage faults outside these two surface as wrapped
// driver errors; callers decide whether to skip or abort.
var (
	// ErrDuplicate indicates an insert violated a uniqueness invariant.
	ErrDuplicate = errors.New("store: duplicate record")
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
)

// BusinessFilter specifies criteria for listing businesses. Zero-valued
// fields apply no constraint.
type BusinessFilter struct {
	Status     model.BusinessStatus `json:"status,omitempty"`
	Source     string               `json:"source,omitempty"`
	State      string               `json:"state,omitempty"`
	City       string               `json:"city,omitempty"`
	Category   string               `json:"category,omitempty"`
	HasWebsite *bool                `json:"has_website,omitempty"`
	Limit      int                  `json:"limit,omitempty"`
	Offset     int                  `json:"offset,omitempty"`
}

// BusinessUpdate holds a partial update; nil fields are left untouched.
type BusinessUpdate struct {
	Name       *string
	Category   *string
	Address    *string
	City       *string
	State      *string
	County     *string
	Phone      *string
	Email      *string
	WebsiteURL *string
	HasWebsite *bool
}

// EnrichmentData holds the fields set when a business is enriched from a
// detail lookup.
type EnrichmentData struct {
	Address string
	City    string
	State   string
	County  string
	Phone   string
	Email   string
}

// Stats aggregates pipeline progress counts. ByStatus always contains all
// six lifecycle statuses, defaulting to zero.
type Stats struct {
	TotalBusinesses int                          `json:"total_businesses"`
	ByStatus        map[model.BusinessStatus]int `json:"by_status"`
	BySource        map[string]int               `json:"by_source"`
	TotalWebsites   int                          `json:"total_websites"`
	TotalOutreach   int                          `json:"total_outreach"`
}

// Store defines the persistence contract for the pipeline.
type Store interface {
	// Businesses
	InsertBusiness(ctx context.Context, b *model.Business) (*model.Business, error)
	InsertBusinesses(ctx context.Context, batch []model.Business) (int, error)
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	GetBusinessBySource(ctx context.Context, source, sourceID string) (*model.Business, error)
	ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error)
	BusinessesNeedingWebsites(ctx context.Context, limit int) ([]model.Business, error)
	UpdateBusiness(ctx context.Context, id string, upd BusinessUpdate) (*model.Business, error)
	AdvanceBusinessStatus(ctx context.Context, id string, status model.BusinessStatus) error
	MarkBusinessEnriched(ctx context.Context, id string, data EnrichmentData) error
	BusinessExistsBySource(ctx context.Context, source, sourceID string) (bool, error)
	BusinessExistsByPlaceID(ctx context.Context, placeID string) (bool, error)
	BusinessExistsByNameCity(ctx context.Context, name, city, state string) (bool, error)

	// Generated websites
	InsertWebsite(ctx context.Context, w *model.GeneratedWebsite) (*model.GeneratedWebsite, error)
	GetWebsite(ctx context.Context, id string) (*model.GeneratedWebsite, error)
	WebsitesPendingDeployment(ctx context.Context, limit int) ([]model.GeneratedWebsite, error)
	MarkWebsiteDeployed(ctx context.Context, id, previewURL string) error

	// Outreach
	InsertOutreach(ctx context.Context, o *model.OutreachLog) (*model.OutreachLog, error)

	// Reporting
	GetStats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
