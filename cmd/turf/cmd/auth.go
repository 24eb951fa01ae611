package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/layer-3/turfbook/core"
)

var (
	loginEmail    string
	loginPassword string

	registerForm core.Registration
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			u, err := a.auth.Login(cmd.Context(), loginEmail, loginPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Username)
			return nil
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		form := registerForm
		if form.Password2 == "" {
			form.Password2 = form.Password
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			u, err := a.auth.Register(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created. Logged in as %s\n", u.Username)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			u, err := a.auth.Restore(cmd.Context())
			if err != nil {
				return err
			}
			role := "player"
			if u.IsTurfOwner {
				role = "turf owner"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", u.Username, u.Email, role)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVarP(&registerForm.Username, "username", "u", "", "Username")
	registerCmd.Flags().StringVarP(&registerForm.Email, "email", "e", "", "Email")
	registerCmd.Flags().StringVar(&registerForm.Phone, "phone", "", "Phone number")
	registerCmd.Flags().StringVarP(&registerForm.Password, "password", "p", "", "Password")
	registerCmd.Flags().StringVar(&registerForm.Password2, "confirm", "", "Password confirmation (defaults to --password)")
	registerCmd.Flags().BoolVar(&registerForm.IsTurfOwner, "owner", false, "Register as a turf owner")
}
