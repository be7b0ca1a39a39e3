package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"campuspulse/internal/exporter"
	"campuspulse/internal/validation"
)

func newExportCommand(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export FILE --out PATH",
		Short: "Write the normalized monthly series of a spreadsheet as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.NewFileValidator(c.logger).ValidateOutputFile(out); err != nil {
				return err
			}

			ds, err := c.loadFile(cmd.Context(), c.datasets(), args[0])
			if err != nil {
				return err
			}

			if err := exporter.NewCSVWriter(c.logger).ExportSeries(out, ds.Series); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d record(s) to %s\n", ds.Series.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "destination CSV path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
