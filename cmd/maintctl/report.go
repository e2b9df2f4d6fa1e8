package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"device-maintenance/backend/internal/report"
)

func (c *cli) reportCmd() *cobra.Command {
	var from, to, typ, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the maintenance report as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := reportRequest(from, to, typ)
			if err != nil {
				return err
			}
			ctx, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.backend.Reports.Export(ctx, req)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := report.WriteCSV(w, res.Items); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			if res.Truncated {
				fmt.Fprintf(cmd.ErrOrStderr(), "report truncated to %d of %d rows by the export policy\n", len(res.Items), res.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first performed date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last performed date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typ, "type", "", "preventive or corrective; empty for both")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func reportRequest(from, to, typ string) (report.Request, error) {
	f, err := report.ParseDate("from", from)
	if err != nil {
		return report.Request{}, err
	}
	t, err := report.ParseDate("to", to)
	if err != nil {
		return report.Request{}, err
	}
	return report.Request{From: f, To: t, Type: typ}, nil
}
