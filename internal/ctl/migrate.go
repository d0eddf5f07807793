package ctl

import (
	"context"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/todovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todovault/internal/server/services"
)

func newMigrateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Encrypt task fields still stored as plaintext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, km, err := e.cipher(ctx)
			if err != nil {
				return err
			}
			store, err := repomanager.Open(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(context.WithoutCancel(ctx)) }()

			svc := services.NewTaskService(store.Tasks, c, km, e.logger)
			report, err := svc.MigrateLegacy(ctx)
			if err != nil {
				return err
			}

			e.success("Scanned %d tasks, migrated %s, already encrypted %d",
				report.Scanned, color.GreenString("%d", report.Migrated), report.Skipped)
			if len(report.Failed) > 0 {
				e.warn("%d tasks could not be decrypted and were left untouched: %s",
					len(report.Failed), strings.Join(report.Failed, ", "))
			}
			return nil
		},
	}
}
