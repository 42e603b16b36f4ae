package main

import (
	"github.com/spf13/cobra"

	"github.com/jpmusenge/local-biz-agent/internal/deployment"
	"github.com/jpmusenge/local-biz-agent/internal/discovery"
	"github.com/jpmusenge/local-biz-agent/internal/generation"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run discovery, generation, and deployment in sequence",
	Long:  "Runs the full pipeline: discover businesses without websites, generate sites for the queue, then deploy everything pending. Each stage reads the store's current state, so re-running after a partial failure picks up where the last run stopped.",
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

		gen, err := generator(cfg)
		if err != nil {
			return err
		}

		discSummary, err := discovery.NewRunner(st, placesClient(cfg)).Run(ctx, discovery.Config{
			Areas:               areas,
			Categories:          categories,
			MaxResultsPerSearch: cfg.Discovery.MaxResultsPerSearch,
			RequireOperational:  cfg.Discovery.RequireOperational,
			MinRating:           cfg.Discovery.MinRating,
		})
		if err != nil {
			return err
		}
		printDiscoverySummary(cmd, discSummary)

		genSummary, err := generation.NewRunner(st, gen).Run(ctx, generation.Config{
			Limit:                cfg.Generation.BatchLimit,
			TemplatesPerBusiness: cfg.Generation.TemplatesPerBusiness,
			MinHTMLLength:        cfg.Generation.MinHTMLLength,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Generated %d websites for %d businesses (%d failed)\n",
			genSummary.WebsitesCreated, genSummary.Succeeded, genSummary.Failed)

		depSummary, err := deployment.NewRunner(st, hostingClient(cfg)).Run(ctx, deployment.Config{
			Limit: cfg.Deployment.BatchLimit,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Deployed %d of %d pending websites (%d failed)\n",
			depSummary.Succeeded, depSummary.Total, depSummary.Failed)

		return nil
	},
}

func init() {
	pipelineCmd.Flags().StringArrayVar(&discoverAreas, "area", nil, "search area as \"City,ST\" (repeatable)")
	pipelineCmd.Flags().StringArrayVar(&discoverCategories, "category", nil, "business category key (repeatable, default all)")
	pipelineCmd.Flags().Float64Var(&discoverRadius, "radius", 0, "search radius in miles")
	rootCmd.AddCommand(pipelineCmd)
}
