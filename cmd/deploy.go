package main

import (
	"github.com/spf13/cobra"

	"github.com/jpmusenge/local-biz-agent/internal/deployment"
)

var (
	deployLimit     int
	deployWebsiteID string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy generated websites to hosting",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		runner := deployment.NewRunner(st, hostingClient(cfg))

		if deployWebsiteID != "" {
			site, err := runner.DeployByID(ctx, deployWebsiteID)
			if err != nil {
				return err
			}
			cmd.Printf("Deployed website %s\n", site.ID)
			if site.PreviewURL != nil {
				cmd.Printf("  url: %s\n", *site.PreviewURL)
			}
			return nil
		}

		summary, err := runner.Run(ctx, deployment.Config{
			Limit: limitOr(deployLimit, cfg.Deployment.BatchLimit),
		})
		if err != nil {
			return err
		}

		cmd.Println("Deployment complete")
		cmd.Printf("  total:     %d\n", summary.Total)
		cmd.Printf("  succeeded: %d\n", summary.Succeeded)
		cmd.Printf("  failed:    %d\n", summary.Failed)
		for _, f := range summary.Failures {
			cmd.Printf("  FAILED website %s: %s\n", f.WebsiteID, f.Reason)
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().IntVar(&deployLimit, "limit", 0, "max websites to deploy")
	deployCmd.Flags().StringVar(&deployWebsiteID, "website-id", "", "deploy a single website by id")
	rootCmd.AddCommand(deployCmd)
}
