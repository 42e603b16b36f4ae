// Package discovery finds businesses without websites and records them.
// Each (area, category) pair runs independently: search, detail-fetch,
// filter, dedup, insert. One pair's failure never aborts the rest.
package discovery

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
	"github.com/jpmusenge/local-biz-agent/pkg/places"
)

// SourceGooglePlaces is the provenance tag for businesses found through
// the places API.
const SourceGooglePlaces = "google_places"

// Config controls one discovery run.
type Config struct {
	Areas      []places.Area
	Categories []places.Category

	// MaxResultsPerSearch caps each (area, category) search.
	MaxResultsPerSearch int

	// RequireOperational drops places the API reports as closed.
	RequireOperational bool

	// MinRating drops places rated below the threshold. Zero disables the
	// filter.
	MinRating float64
}

// Runner drives discovery against a store and a places client.
type Runner struct {
	store  store.Store
	places places.Client
}

// NewRunner creates a discovery runner.
func NewRunner(st store.Store, pc places.Client) *Runner {
	return &Runner{store: st, places: pc}
}

// Run searches every (area, category) pair and saves businesses that lack
// a website and are not already known. The returned summary is complete
// even when individual pairs fail.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Summary, error) {
	if len(cfg.Areas) == 0 {
		return nil, eris.New("discovery: no areas configured")
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = places.DefaultCategories
	}
	if cfg.MaxResultsPerSearch <= 0 {
		cfg.MaxResultsPerSearch = 20
	}

	summary := NewSummary()
	if r.places.InMockMode() {
		zap.L().Info("places client in mock mode; results are synthetic")
	}

	for _, area := range cfg.Areas {
		for _, category := range cfg.Categories {
			if err := ctx.Err(); err != nil {
				return summary, eris.Wrap(err, "discovery: run canceled")
			}

			if err := r.runPair(ctx, area, category, cfg, summary); err != nil {
				zap.L().Error("discovery pair failed",
					zap.String("city", area.City),
					zap.String("state", area.State),
					zap.String("category", category.Key),
					zap.Error(err),
				)
				summary.RecordFailure(area, category, err)
			}
		}
	}

	return summary, nil
}

func (r *Runner) runPair(ctx context.Context, area places.Area, category places.Category, cfg Config, summary *Summary) error {
	log := zap.L().With(
		zap.String("city", area.City),
		zap.String("state", area.State),
		zap.String("category", category.Key),
	)

	found, err := r.places.SearchBusinesses(ctx, area, category, cfg.MaxResultsPerSearch)
	if err != nil {
		return eris.Wrap(err, "search businesses")
	}
	summary.AddFound(area, category, len(found))
	if len(found) == 0 {
		log.Info("no businesses found")
		return nil
	}

	ids := make([]string, len(found))
	for i, p := range found {
		ids[i] = p.PlaceID
	}
	details, err := r.places.GetPlaceDetailsBatch(ctx, ids, func(done, total int) {
		if done == total || done%10 == 0 {
			log.Debug("detail fetch progress", zap.Int("done", done), zap.Int("total", total))
		}
	})
	if err != nil {
		return eris.Wrap(err, "fetch place details")
	}

	for _, d := range details {
		if !r.eligible(d, cfg) {
			continue
		}
		summary.AddWithoutWebsite(area, category, 1)

		known, err := r.alreadyKnown(ctx, d)
		if err != nil {
			return eris.Wrapf(err, "dedup check for %q", d.Name)
		}
		if known {
			summary.AddAlreadyExists(area, category, 1)
			r.refreshKnown(ctx, d)
			continue
		}

		biz := businessFromDetails(d, area, category)
		if _, err := r.store.InsertBusiness(ctx, biz); err != nil {
			if eris.Is(err, store.ErrDuplicate) {
				summary.AddAlreadyExists(area, category, 1)
				continue
			}
			return eris.Wrapf(err, "insert %q", d.Name)
		}
		summary.AddNewlySaved(area, category, 1)
	}

	log.Info("discovery pair complete",
		zap.Int("found", len(found)),
		zap.Int("details", len(details)),
	)
	return nil
}

// eligible applies the website, operating-status, and rating filters.
func (r *Runner) eligible(d places.PlaceDetails, cfg Config) bool {
	if d.HasWebsite() {
		return false
	}
	if cfg.RequireOperational && d.BusinessStatus != places.BusinessStatusOperational {
		return false
	}
	if cfg.MinRating > 0 && d.Rating < cfg.MinRating {
		return false
	}
	return true
}

// alreadyKnown checks provenance identity first, then the softer
// name+city+state match which also catches records from other sources.
func (r *Runner) alreadyKnown(ctx context.Context, d places.PlaceDetails) (bool, error) {
	if exists, err := r.store.BusinessExistsByPlaceID(ctx, d.PlaceID); err != nil || exists {
		return exists, err
	}
	return r.store.BusinessExistsByNameCity(ctx, d.Name, d.City, d.State)
}

// refreshKnown backfills contact data onto an already-saved record when a
// fresh detail fetch carries fields the stored row is missing. Best effort:
// records matched only by name and city belong to another source and are
// left alone.
func (r *Runner) refreshKnown(ctx context.Context, d places.PlaceDetails) {
	b, err := r.store.GetBusinessBySource(ctx, SourceGooglePlaces, d.PlaceID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			zap.L().Warn("lookup for enrichment failed", zap.String("place_id", d.PlaceID), zap.Error(err))
		}
		return
	}

	var data store.EnrichmentData
	if b.Phone == "" && d.Phone != "" {
		data.Phone = d.Phone
	}
	if b.Address == "" && d.Address != "" {
		data.Address = d.Address
	}
	if b.County == "" && d.County != "" {
		data.County = d.County
	}
	if data == (store.EnrichmentData{}) {
		return
	}

	if err := r.store.MarkBusinessEnriched(ctx, b.ID, data); err != nil {
		zap.L().Warn("enrichment update failed", zap.String("business_id", b.ID), zap.Error(err))
	}
}

// businessFromDetails builds the row for a newly discovered business. The
// record explicitly asserts absence of a website.
func businessFromDetails(d places.PlaceDetails, area places.Area, category places.Category) *model.Business {
	city := d.City
	if city == "" {
		city = area.City
	}
	state := d.State
	if state == "" {
		state = area.State
	}

	return &model.Business{
		Name:          d.Name,
		Category:      category.Key,
		Address:       d.Address,
		City:          city,
		State:         state,
		County:        d.County,
		Phone:         d.Phone,
		Source:        SourceGooglePlaces,
		SourceID:      d.PlaceID,
		GooglePlaceID: d.PlaceID,
		HasWebsite:    false,
		WebsiteURL:    nil,
		Status:        model.StatusDiscovered,
	}
}
