package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the game state and your click budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sync.Resync(cmd.Context()); err != nil {
				return err
			}
			out.Print(NewStatus(app.Sync.View()))
			return nil
		},
	}
}

func newClickCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "click",
		Short: "Click the button",
		Long: `Submit one or more clicks. Each click is shown at once and confirmed by
the server; a rejected click is rolled back and stops the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New("-n must be at least 1")
			}

			result := ClickResult{Requested: count}
			var clickErr error
			for range count {
				if _, clickErr = app.Sync.Click(cmd.Context()); clickErr != nil {
					result.Error = clickErr.Error()
					break
				}
				result.Confirmed++
			}
			result.Status = NewStatus(app.Sync.View())
			out.Print(result)

			if result.Confirmed == 0 {
				return clickErr
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of clicks")

	return cmd
}

func newWinnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "winners",
		Short: "List past winners",
		RunE: func(cmd *cobra.Command, args []string) error {
			winners, err := app.Client.Winners(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(Winners{Winners: winners})
			return nil
		},
	}
}
