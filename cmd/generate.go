package main

import (
	"github.com/spf13/cobra"

	"github.com/jpmusenge/local-biz-agent/internal/generation"
)

var (
	generateLimit     int
	generateTemplates int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate websites for businesses that lack one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		gen, err := generator(cfg)
		if err != nil {
			return err
		}

		runner := generation.NewRunner(st, gen)
		summary, err := runner.Run(ctx, generation.Config{
			Limit:                limitOr(generateLimit, cfg.Generation.BatchLimit),
			TemplatesPerBusiness: templatesOr(generateTemplates),
			MinHTMLLength:        cfg.Generation.MinHTMLLength,
		})
		if err != nil {
			return err
		}

		cmd.Println("Generation complete")
		cmd.Printf("  processed:        %d\n", summary.Processed)
		cmd.Printf("  succeeded:        %d\n", summary.Succeeded)
		cmd.Printf("  failed:           %d\n", summary.Failed)
		cmd.Printf("  websites created: %d\n", summary.WebsitesCreated)
		for _, f := range summary.Failures {
			cmd.Printf("  FAILED %s (%s): %s\n", f.Name, f.BusinessID, f.Reason)
		}
		return nil
	},
}

func limitOr(flag, fallback int) int {
	if flag > 0 {
		return flag
	}
	return fallback
}

func templatesOr(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Generation.TemplatesPerBusiness
}

func init() {
	generateCmd.Flags().IntVar(&generateLimit, "limit", 0, "max businesses to process")
	generateCmd.Flags().IntVar(&generateTemplates, "templates", 0, "template variations per business (1-3)")
	rootCmd.AddCommand(generateCmd)
}
