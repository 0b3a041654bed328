package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"vacplan/internal/config"
	"vacplan/internal/fetch"
	"vacplan/internal/holidays"
	"vacplan/internal/ics"
	appLog "vacplan/internal/log"
)

const (
	version    = "0.1.0"
	configDesc = "path to the YAML configuration file (created with defaults if missing)"
)

// app carries global flag values and the loaded configuration to the
// subcommands.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	c := &cobra.Command{
		Use:           "vacplan",
		Short:         "Spread vacation days evenly between holidays",
		Long:          "vacplan recommends vacation days for the rest of the year so that days off are spaced as evenly as possible around statutory holidays.",
		Version:       version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	c.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(), configDesc)
	c.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	c.AddCommand(
		newPlanCmd(a),
		newHolidaysCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return c
}

// loadConfig reads the configuration and applies the log level.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	// Arguments are fine from here on; errors are runtime failures.
	cmd.SilenceUsage = true

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	appLog.SetLevel(level)

	appLog.Debug("effective config",
		"config_path", a.configPath,
		"region", cfg.Region,
		"vacation_days", cfg.VacationDays,
		"fixed_days", len(cfg.FixedVacationDays),
		"week_numbering", cfg.WeekNumbering,
		"timezone", cfg.Timezone,
		"ics_count", len(cfg.ICSSources),
		"extra_rules", len(cfg.ExtraDaysOff),
	)
	a.cfg = cfg
	return nil
}

// buildSource combines the holidays API with the configured ICS feeds and
// recurring extra days off.
func buildSource(cfg *config.Config) holidays.Source {
	f := fetch.New(fetch.Options{
		CacheDir: cfg.HolidayAPI.CacheDir,
		Timeout:  cfg.HolidayAPI.Timeout,
		Retries:  cfg.HolidayAPI.Retries,
	})

	src := holidays.Multi{holidays.NewClient(f, cfg.HolidayAPI.URL)}
	for _, feed := range cfg.ICSSources {
		src = append(src, ics.FeedSource{
			ID:       feed.ID,
			Location: feed.URL,
			Region:   feed.Region,
			Fetcher:  f,
		})
	}
	if len(cfg.ExtraDaysOff) > 0 {
		rules := make([]ics.Rule, 0, len(cfg.ExtraDaysOff))
		for _, extra := range cfg.ExtraDaysOff {
			rules = append(rules, ics.Rule{Name: extra.Name, RRule: extra.RRule, Regions: []string{extra.Region}})
		}
		src = append(src, ics.RuleSource{Rules: rules})
	}
	return src
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vacplan.yaml"
	}
	return filepath.Join(dir, "vacplan", "config.yaml")
}
