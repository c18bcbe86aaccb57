package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ridewise/internal/scheduler"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the local provider cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := scheduler.NewCleanupService(store, a.logger).PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d expired entries\n", n)
			return nil
		},
	})
	return cmd
}
