package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/clickpot/internal/session"
)

func printAccount() {
	out.Print(NewAccount(app.Session.Snapshot(), app.Sync.View()))
}

func newLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a username or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Login(cmd.Context(), user, pass); err != nil {
				return err
			}
			printAccount()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username or email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var user, email, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.ValidateRegistration(user, email, pass); err != nil {
				return err
			}
			if err := app.Session.Register(cmd.Context(), user, email, pass); err != nil {
				return err
			}
			printAccount()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password, at least 6 characters (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newGuestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Watch the game without an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.ContinueAsGuest(cmd.Context()); err != nil {
				return err
			}
			out.PrintMessage("Continuing as guest")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			out.PrintMessage("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			printAccount()
			return nil
		},
	}
}

func newLanguageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "language <code>",
		Short: "Set the preferred language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.SetLanguage(cmd.Context(), args[0]); err != nil {
				return err
			}
			out.PrintMessage(fmt.Sprintf("Language set to %s", args[0]))
			return nil
		},
	}
}

func newDeleteAccountCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Permanently delete the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the account without --yes")
			}
			if err := app.Session.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			out.PrintMessage("Account deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")

	return cmd
}
