package main

import (
	"github.com/spf13/cobra"

	"github.com/jpmusenge/local-biz-agent/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline progress counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Businesses: %d\n", stats.TotalBusinesses)
		for _, status := range model.AllStatuses {
			cmd.Printf("  %-18s %d\n", string(status), stats.ByStatus[status])
		}
		if len(stats.BySource) > 0 {
			cmd.Println("By source:")
			for source, n := range stats.BySource {
				cmd.Printf("  %-18s %d\n", source, n)
			}
		}
		cmd.Printf("Websites:   %d\n", stats.TotalWebsites)
		cmd.Printf("Outreach:   %d\n", stats.TotalOutreach)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
