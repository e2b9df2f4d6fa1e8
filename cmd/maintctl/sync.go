package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import computers and components from GLPI now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.backend.Syncer.Run(ctx)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			c.audit(ctx, "sync_started", "sync", res)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}
