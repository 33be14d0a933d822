package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/store/migrations"
)

var rollback bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending store migrations and print their status",
	Long: `Apply every pending migration of the profile store, or roll back the
newest applied one with --rollback.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back the newest applied migration")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Opening the environment applies pending migrations
	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	manager := migrations.NewManager(env.db, env.logger.ForFeature("store"))
	if rollback {
		if err := manager.Rollback(ctx); err != nil {
			return err
		}
	}

	status, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Applied migrations: %d\n", status.AppliedCount)
	for _, m := range status.Applied {
		fmt.Fprintf(out, "  %03d %-28s %s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}

	pending, err := manager.Pending(ctx)
	if err != nil {
		return err
	}
	for _, m := range pending {
		fmt.Fprintf(out, "  %03d %-28s pending\n", m.Version, m.Name)
	}
	return nil
}
