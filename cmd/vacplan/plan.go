package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vacplan/internal/config"
	"vacplan/internal/ics"
	appLog "vacplan/internal/log"
	"vacplan/internal/model"
	"vacplan/internal/planner"
	"vacplan/internal/report"
)

// planFlags override the planning fields of the configuration.
type planFlags struct {
	region    string
	start     string
	days      int
	fixed     []string
	numbering string
	anchor    bool
}

func (f *planFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.region, "region", "r", "", "holiday region, e.g. BC or CA")
	fs.StringVarP(&f.start, "start", "s", "", "first day of the plan (YYYY-MM-DD), default today")
	fs.IntVarP(&f.days, "days", "d", 0, "vacation days for the year, fixed days included")
	fs.StringSliceVar(&f.fixed, "fixed", nil, "already booked vacation days (YYYY-MM-DD, repeatable)")
	fs.StringVar(&f.numbering, "week-numbering", "", "continuous or iso")
	fs.BoolVar(&f.anchor, "anchor-previous", false, "weight the gap from the last holiday before the start date")
}

// apply copies the flags that were set onto cfg and revalidates it.
func (f *planFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("region") {
		cfg.Region = f.region
	}
	if fs.Changed("start") {
		cfg.StartDate = f.start
	}
	if fs.Changed("days") {
		cfg.VacationDays = f.days
	}
	if fs.Changed("fixed") {
		cfg.FixedVacationDays = f.fixed
	}
	if fs.Changed("week-numbering") {
		cfg.WeekNumbering = f.numbering
	}
	if fs.Changed("anchor-previous") {
		cfg.AnchorPrevious = f.anchor
	}
	cfg.Normalize()
	return cfg.Validate()
}

// runPlan loads the holidays of the plan year and runs the planner.
func (a *app) runPlan(ctx context.Context) (planner.Result, *model.HolidaySet, error) {
	now := time.Now()
	start, err := a.cfg.Start(now)
	if err != nil {
		return planner.Result{}, nil, err
	}

	set, err := buildSource(a.cfg).Holidays(ctx, start.Year)
	if err != nil {
		return planner.Result{}, nil, fmt.Errorf("load holidays: %w", err)
	}

	in, err := a.cfg.PlannerInput(set, now)
	if err != nil {
		return planner.Result{}, nil, err
	}
	res, err := planner.Run(in)
	if err != nil {
		return planner.Result{}, nil, err
	}

	appLog.Info("plan ready",
		"region", res.Region,
		"start", res.StartDate,
		"vacation_days", len(res.VacationDays),
		"days_off", len(res.DaysOff),
	)
	return res, set, nil
}

func newPlanCmd(a *app) *cobra.Command {
	var (
		pf      planFlags
		format  string
		icsPath string
	)

	c := &cobra.Command{
		Use:     "plan",
		Short:   "Recommend vacation days for the rest of the year",
		Example: "vacplan plan --region BC --start 2021-02-14 --days 14",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.apply(cmd.Flags(), a.cfg); err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			res, set, err := a.runPlan(ctx)
			if err != nil {
				return err
			}
			if err := report.Write(cmd.OutOrStdout(), res, set, f); err != nil {
				return err
			}
			if icsPath != "" {
				return writeICSFile(icsPath, res, ics.ExportOptions{Holidays: set})
			}
			return nil
		},
	}

	pf.register(c.Flags())
	c.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "output format: text, json or csv")
	c.Flags().StringVar(&icsPath, "ics", "", "also write the plan as an iCalendar file")
	return c
}

func newExportCmd(a *app) *cobra.Command {
	var (
		pf           planFlags
		output       string
		name         string
		withHolidays bool
	)

	c := &cobra.Command{
		Use:     "export",
		Short:   "Write the recommended vacation days as an iCalendar file",
		Example: "vacplan export --days 14 -o vacation.ics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.apply(cmd.Flags(), a.cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			res, set, err := a.runPlan(ctx)
			if err != nil {
				return err
			}

			opts := ics.ExportOptions{Name: name}
			if withHolidays {
				opts.Holidays = set
			}
			if output == "" || output == "-" {
				return ics.WritePlan(cmd.OutOrStdout(), res, opts)
			}
			return writeICSFile(output, res, opts)
		},
	}

	pf.register(c.Flags())
	c.Flags().StringVarP(&output, "output", "o", "-", "destination file, - for stdout")
	c.Flags().StringVar(&name, "name", "", "calendar name (default \"Vacation plan <region>\")")
	c.Flags().BoolVar(&withHolidays, "with-holidays", true, "include holidays as transparent events")
	return c
}

func writeICSFile(path string, res planner.Result, opts ics.ExportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ics.WritePlan(f, res, opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	appLog.Info("calendar written", "path", path, "events", len(res.VacationDays))
	return nil
}
