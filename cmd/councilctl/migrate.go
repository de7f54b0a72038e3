package main

import (
	"context"
	"fmt"

	"github.com/dalemusser/councilhub/internal/app/bootstrap"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"github.com/spf13/cobra"
)

func newMigrateLegacyCmd(g *globalOptions) *cobra.Command {
	var actorEmail string

	cmd := &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Mark every legacy account verified and approved",
		Long: `migrate-legacy finds accounts created before email verification and
approval existed and moves them straight to active. Accounts that are
already verified or approved are left alone, so the command is safe to
run more than once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			logger := g.logger()
			defer func() { _ = logger.Sync() }()

			deps, closeDB, err := g.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer closeDB()

			actor, err := resolveActor(ctx, userstore.New(deps.MongoDatabase), actorEmail)
			if err != nil {
				return err
			}

			svc, err := bootstrap.NewServices(g.appConfig(), deps.MongoDatabase, logger)
			if err != nil {
				return err
			}

			var msgs notify.Collector
			res, err := svc.Lifecycle.MigrateLegacy(ctx, actor, &msgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range msgs.Messages() {
				fmt.Fprintf(out, "[%s] %s\n", m.Level, m.Text)
			}
			fmt.Fprintf(out, "migrated=%d skipped=%d failed=%d\n", res.MigratedCount, res.Skipped, len(res.Failures))
			for _, f := range res.Failures {
				fmt.Fprintln(out, "  "+f)
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d account(s) failed to migrate", len(res.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actorEmail, "actor", "", "Email of the admin recorded in the audit log (required)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
