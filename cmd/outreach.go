package main

import (
	"github.com/spf13/cobra"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/outreach"
)

var (
	outreachMethod string
	outreachNotes  string
)

var outreachCmd = &cobra.Command{
	Use:   "outreach <business-id>",
	Short: "Log a contact attempt toward a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		entry, err := outreach.NewLogger(st).LogAttempt(ctx, args[0],
			model.OutreachMethod(outreachMethod), outreachNotes)
		if err != nil {
			return err
		}

		cmd.Printf("Logged %s outreach %s at %s\n",
			entry.Method, entry.ID, entry.ContactedAt.Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	outreachCmd.Flags().StringVar(&outreachMethod, "method", "email", "contact method: email, phone, or in_person")
	outreachCmd.Flags().StringVar(&outreachNotes, "notes", "", "freeform notes about the attempt")
	rootCmd.AddCommand(outreachCmd)
}
