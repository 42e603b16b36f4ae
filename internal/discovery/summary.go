package discovery

import (
	"fmt"

	"github.com/jpmusenge/local-biz-agent/pkg/places"
)

// Counts tallies one scope of a discovery run.
type Counts struct {
	Found          int `json:"found"`
	WithoutWebsite int `json:"without_website"`
	NewlySaved     int `json:"newly_saved"`
	AlreadyExists  int `json:"already_exists"`
}

func (c *Counts) add(other Counts) {
	c.Found += other.Found
	c.WithoutWebsite += other.WithoutWebsite
	c.NewlySaved += other.NewlySaved
	c.AlreadyExists += other.AlreadyExists
}

// PairFailure records one (area, category) pair that failed without
// aborting the run.
type PairFailure struct {
	Area     string `json:"area"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Summary is the auditable result of a discovery run: totals plus
// breakdowns by category and by area, and the failures that occurred.
type Summary struct {
	Totals     Counts            `json:"totals"`
	ByCategory map[string]Counts `json:"by_category"`
	ByArea     map[string]Counts `json:"by_area"`
	Failures   []PairFailure     `json:"failures,omitempty"`
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{
		ByCategory: make(map[string]Counts),
		ByArea:     make(map[string]Counts),
	}
}

func areaKey(a places.Area) string {
	return fmt.Sprintf("%s, %s", a.City, a.State)
}

func (s *Summary) bump(a places.Area, c places.Category, delta Counts) {
	s.Totals.add(delta)

	byCat := s.ByCategory[c.Key]
	byCat.add(delta)
	s.ByCategory[c.Key] = byCat

	byArea := s.ByArea[areaKey(a)]
	byArea.add(delta)
	s.ByArea[areaKey(a)] = byArea
}

// AddFound records search results for a pair.
func (s *Summary) AddFound(a places.Area, c places.Category, n int) {
	s.bump(a, c, Counts{Found: n})
}

// AddWithoutWebsite records candidates that passed the filters.
func (s *Summary) AddWithoutWebsite(a places.Area, c places.Category, n int) {
	s.bump(a, c, Counts{WithoutWebsite: n})
}

// AddNewlySaved records inserts.
func (s *Summary) AddNewlySaved(a places.Area, c places.Category, n int) {
	s.bump(a, c, Counts{NewlySaved: n})
}

// AddAlreadyExists records dedup skips.
func (s *Summary) AddAlreadyExists(a places.Area, c places.Category, n int) {
	s.bump(a, c, Counts{AlreadyExists: n})
}

// RecordFailure notes a failed pair.
func (s *Summary) RecordFailure(a places.Area, c places.Category, err error) {
	s.Failures = append(s.Failures, PairFailure{
		Area:     areaKey(a),
		Category: c.Key,
		Reason:   err.Error(),
	})
}
