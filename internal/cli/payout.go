package cli

import (
	"github.com/spf13/cobra"
)

func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collect your winnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := app.Sync.CollectWinnings(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(PayoutResult{TransactionID: txID})
			return nil
		},
	}
}

func newPayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Payout method commands",
	}

	cmd.AddCommand(newPayoutSetCmd())

	return cmd
}

func newPayoutSetCmd() *cobra.Command {
	var paypal string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the PayPal address winnings are paid to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sync.SetPaymentMethod(cmd.Context(), paypal); err != nil {
				return err
			}
			out.PrintMessage("Payout method updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&paypal, "paypal", "", "PayPal email (required)")
	_ = cmd.MarkFlagRequired("paypal")

	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "collect",
		Short: "Collect the administrator balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := app.Sync.AdminCollect(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(PayoutResult{TransactionID: txID})
			return nil
		},
	})

	return cmd
}
