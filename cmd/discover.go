package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jpmusenge/local-biz-agent/internal/discovery"
	"github.com/jpmusenge/local-biz-agent/pkg/places"
)

var (
	discoverAreas      []string
	discoverCategories []string
	discoverRadius     float64
	discoverMaxResults int
	discoverMinRating  float64
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find and save businesses without websites",
	Long:  "Searches the places API for each area and category, keeps businesses that lack a website, and saves the ones not already known.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		areas, err := parseAreas(discoverAreas, discoverRadius)
		if err != nil {
			return err
		}
		categories, err := parseCategories(discoverCategories)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		runner := discovery.NewRunner(st, placesClient(cfg))
		summary, err := runner.Run(ctx, discovery.Config{
			Areas:               areas,
			Categories:          categories,
			MaxResultsPerSearch: maxResultsOrDefault(),
			RequireOperational:  cfg.Discovery.RequireOperational,
			MinRating:           minRatingOrDefault(),
		})
		if err != nil {
			return err
		}

		printDiscoverySummary(cmd, summary)
		return nil
	},
}

func maxResultsOrDefault() int {
	if discoverMaxResults > 0 {
		return discoverMaxResults
	}
	return cfg.Discovery.MaxResultsPerSearch
}

func minRatingOrDefault() float64 {
	if discoverMinRating > 0 {
		return discoverMinRating
	}
	return cfg.Discovery.MinRating
}

// parseAreas turns "City,ST" strings into search areas.
func parseAreas(raw []string, radius float64) ([]places.Area, error) {
	if len(raw) == 0 {
		return nil, eris.New("at least one --area is required, e.g. --area \"Springfield,IL\"")
	}
	if radius <= 0 {
		radius = cfg.Discovery.DefaultRadiusMiles
	}

	areas := make([]places.Area, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ",", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, eris.Errorf("invalid area %q, expected \"City,ST\"", r)
		}
		areas = append(areas, places.Area{
			City:        strings.TrimSpace(parts[0]),
			State:       strings.ToUpper(strings.TrimSpace(parts[1])),
			RadiusMiles: radius,
		})
	}
	return areas, nil
}

// parseCategories resolves category keys, defaulting to all of them.
func parseCategories(keys []string) ([]places.Category, error) {
	if len(keys) == 0 {
		return places.DefaultCategories, nil
	}

	categories := make([]places.Category, 0, len(keys))
	for _, k := range keys {
		c, ok := places.CategoryByKey(strings.TrimSpace(k))
		if !ok {
			return nil, eris.Errorf("unknown category %q", k)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func printDiscoverySummary(cmd *cobra.Command, s *discovery.Summary) {
	cmd.Println("Discovery complete")
	cmd.Printf("  found:            %d\n", s.Totals.Found)
	cmd.Printf("  without website:  %d\n", s.Totals.WithoutWebsite)
	cmd.Printf("  newly saved:      %d\n", s.Totals.NewlySaved)
	cmd.Printf("  already known:    %d\n", s.Totals.AlreadyExists)

	if len(s.ByCategory) > 1 {
		cmd.Println("  by category:")
		for key, c := range s.ByCategory {
			cmd.Printf("    %-14s saved %d of %d found\n", key, c.NewlySaved, c.Found)
		}
	}
	if len(s.ByArea) > 1 {
		cmd.Println("  by area:")
		for key, c := range s.ByArea {
			cmd.Printf("    %-24s saved %d of %d found\n", key, c.NewlySaved, c.Found)
		}
	}
	for _, f := range s.Failures {
		cmd.Println(fmt.Sprintf("  FAILED %s / %s: %s", f.Area, f.Category, f.Reason))
	}
}

func init() {
	discoverCmd.Flags().StringArrayVar(&discoverAreas, "area", nil, "search area as \"City,ST\" (repeatable)")
	discoverCmd.Flags().StringArrayVar(&discoverCategories, "category", nil, "business category key (repeatable, default all)")
	discoverCmd.Flags().Float64Var(&discoverRadius, "radius", 0, "search radius in miles")
	discoverCmd.Flags().IntVar(&discoverMaxResults, "max-results", 0, "max results per search")
	discoverCmd.Flags().Float64Var(&discoverMinRating, "min-rating", 0, "minimum rating filter")
	rootCmd.AddCommand(discoverCmd)
}
