package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vacplan/internal/report"
)

func newHolidaysCmd(a *app) *cobra.Command {
	var (
		region string
		year   int
		format string
	)

	c := &cobra.Command{
		Use:     "holidays",
		Short:   "List the holidays of a year",
		Example: "vacplan holidays --region BC --year 2021",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().In(a.cfg.Location()).Year()
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			set, err := buildSource(a.cfg).Holidays(ctx, year)
			if err != nil {
				return fmt.Errorf("load holidays: %w", err)
			}
			return report.WriteHolidays(cmd.OutOrStdout(), set, strings.ToUpper(strings.TrimSpace(region)), f)
		},
	}

	c.Flags().StringVarP(&region, "region", "r", "", "only this region (default all)")
	c.Flags().IntVarP(&year, "year", "y", 0, "year to list (default current year)")
	c.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "output format: text, json or csv")
	return c
}
