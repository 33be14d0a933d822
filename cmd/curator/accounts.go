package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"curator/internal/auth"
)

var (
	accountName     string
	accountEmail    string
	accountPassword string
)

// accountsCmd manages local accounts
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage local accounts",
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		profile, err := env.authService().Register(cmd.Context(), auth.RegisterInput{
			Name:            accountName,
			Email:           accountEmail,
			Password:        accountPassword,
			ConfirmPassword: accountPassword,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created account %s <%s>\n", profile.Name, profile.Email)
		return nil
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.close()

		profiles, err := env.authService().Accounts(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEMAIL")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Email)
		}
		return w.Flush()
	},
}

func init() {
	accountsAddCmd.Flags().StringVar(&accountName, "name", "", "Display name")
	accountsAddCmd.Flags().StringVar(&accountEmail, "email", "", "Email address")
	accountsAddCmd.Flags().StringVar(&accountPassword, "password", "", "Password (at least 6 characters)")
	_ = accountsAddCmd.MarkFlagRequired("name")
	_ = accountsAddCmd.MarkFlagRequired("email")
	_ = accountsAddCmd.MarkFlagRequired("password")

	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsListCmd)
}
