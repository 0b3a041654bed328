package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"vacplan/internal/holidays"
	appLog "vacplan/internal/log"
	"vacplan/internal/model"
	"vacplan/internal/planner"
)

const (
	DefaultListen      = "127.0.0.1:8080"
	DefaultTimezone    = "America/Vancouver"
	DefaultRefreshCron = "0 3 * * *"
)

// HolidayAPIConfig points at the JSON holidays API and controls how it is
// fetched.
type HolidayAPIConfig struct {
	// URL is the API endpoint; "?year=YYYY" is appended per request.
	URL string `yaml:"url" json:"url"`
	// CacheDir keeps the last good response per URL. Empty disables caching.
	CacheDir string        `yaml:"cache_dir" json:"cache_dir"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Retries  int           `yaml:"retries" json:"retries"`
}

// ICSConfig describes a single ICS holiday feed.
type ICSConfig struct {
	// ID is used for logging and cache keys.
	ID string `yaml:"id" json:"id"`
	// URL is an http(s) URL or a local path.
	URL string `yaml:"url" json:"url"`
	// Region receives every holiday of the feed. Defaults to Config.Region.
	Region string `yaml:"region" json:"region"`
}

// ExtraDayOffConfig is a recurring day off given as an RRULE, e.g. a
// company shutdown between Christmas and New Year.
type ExtraDayOffConfig struct {
	Name   string `yaml:"name" json:"name"`
	RRule  string `yaml:"rrule" json:"rrule"`
	Region string `yaml:"region" json:"region"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Region selects the holiday calendar, e.g. "BC" or "CA" for federal.
	Region string `yaml:"region" json:"region"`

	// StartDate (YYYY-MM-DD) is the first day of the plan. Empty means today
	// in Timezone.
	StartDate string `yaml:"start_date" json:"start_date"`

	// VacationDays is the yearly budget, fixed days included.
	VacationDays int `yaml:"vacation_days" json:"vacation_days"`

	// FixedVacationDays are days already booked (YYYY-MM-DD).
	FixedVacationDays []string `yaml:"fixed_vacation_days" json:"fixed_vacation_days"`

	// WeekNumbering is "continuous" (default) or "iso".
	WeekNumbering string `yaml:"week_numbering" json:"week_numbering"`

	AnchorPrevious bool `yaml:"anchor_previous" json:"anchor_previous"`

	// Timezone is the IANA zone used to decide what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	HolidayAPI   HolidayAPIConfig    `yaml:"holiday_api" json:"holiday_api"`
	ICSSources   []ICSConfig         `yaml:"ics_sources" json:"ics_sources"`
	ExtraDaysOff []ExtraDayOffConfig `yaml:"extra_days_off" json:"extra_days_off"`

	// Listen is the HTTP listen address used by serve.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a standard 5-field cron schedule for reloading holidays
	// in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Region:            "BC",
		VacationDays:      14,
		FixedVacationDays: []string{},
		WeekNumbering:     planner.WeekNumberingContinuous.String(),
		Timezone:          DefaultTimezone,
		HolidayAPI: HolidayAPIConfig{
			URL:      holidays.DefaultURL,
			CacheDir: DefaultCacheDir(),
			Timeout:  15 * time.Second,
			Retries:  3,
		},
		ICSSources:   []ICSConfig{},
		ExtraDaysOff: []ExtraDayOffConfig{},
		Listen:       DefaultListen,
		RefreshCron:  DefaultRefreshCron,
		LogLevel:     string(appLog.LevelInfo),
	}
}

// DefaultCacheDir is the per-user cache directory for fetched holiday data.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vacplan")
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	c.Region = strings.ToUpper(strings.TrimSpace(c.Region))
	if c.WeekNumbering == "" {
		c.WeekNumbering = planner.WeekNumberingContinuous.String()
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.HolidayAPI.URL == "" {
		c.HolidayAPI.URL = holidays.DefaultURL
	}
	if c.HolidayAPI.Timeout <= 0 {
		c.HolidayAPI.Timeout = 15 * time.Second
	}
	if c.HolidayAPI.Retries < 0 {
		c.HolidayAPI.Retries = 0
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = string(appLog.LevelInfo)
	}
	if c.FixedVacationDays == nil {
		c.FixedVacationDays = []string{}
	}
	if c.ICSSources == nil {
		c.ICSSources = []ICSConfig{}
	}
	if c.ExtraDaysOff == nil {
		c.ExtraDaysOff = []ExtraDayOffConfig{}
	}

	// Feeds and rules without a region belong to the configured one.
	for i := range c.ICSSources {
		c.ICSSources[i].Region = strings.ToUpper(strings.TrimSpace(c.ICSSources[i].Region))
		if c.ICSSources[i].Region == "" {
			c.ICSSources[i].Region = c.Region
		}
		if c.ICSSources[i].ID == "" {
			c.ICSSources[i].ID = fmt.Sprintf("ics-%d", i)
		}
	}
	for i := range c.ExtraDaysOff {
		c.ExtraDaysOff[i].Region = strings.ToUpper(strings.TrimSpace(c.ExtraDaysOff[i].Region))
		if c.ExtraDaysOff[i].Region == "" {
			c.ExtraDaysOff[i].Region = c.Region
		}
	}
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if c.VacationDays < 0 {
		errs = append(errs, fmt.Errorf("vacation_days must be >= 0, got %d", c.VacationDays))
	}
	if c.StartDate != "" {
		if _, err := model.ParseDate(c.StartDate); err != nil {
			errs = append(errs, fmt.Errorf("start_date: %w", err))
		}
	}
	for _, s := range c.FixedVacationDays {
		if _, err := model.ParseDate(s); err != nil {
			errs = append(errs, fmt.Errorf("fixed_vacation_days: %w", err))
		}
	}
	if _, err := planner.ParseWeekNumbering(c.WeekNumbering); err != nil {
		errs = append(errs, fmt.Errorf("week_numbering: %w", err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh: %w", err))
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	for i, src := range c.ICSSources {
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("ics_sources[%d]: url is required", i))
		}
	}
	for i, extra := range c.ExtraDaysOff {
		if _, err := rrule.StrToRRule(extra.RRule); err != nil {
			errs = append(errs, fmt.Errorf("extra_days_off[%d] %q: %w", i, extra.Name, err))
		}
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		errs = append(errs, errors.New("basic_auth: username is required"))
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Warn("invalid timezone, using local", "timezone", c.Timezone, "err", err)
		return time.Local
	}
	return loc
}

// Start resolves StartDate, defaulting to the calendar day of now in the
// configured time zone.
func (c *Config) Start(now time.Time) (model.Date, error) {
	if c.StartDate == "" {
		return model.FromTime(now.In(c.Location())), nil
	}
	return model.ParseDate(c.StartDate)
}

// Fixed parses FixedVacationDays.
func (c *Config) Fixed() ([]model.Date, error) {
	out := make([]model.Date, 0, len(c.FixedVacationDays))
	for _, s := range c.FixedVacationDays {
		d, err := model.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// PlannerInput builds the planning input for the configured region from
// set, resolving the start date against now.
func (c *Config) PlannerInput(set *model.HolidaySet, now time.Time) (planner.Input, error) {
	start, err := c.Start(now)
	if err != nil {
		return planner.Input{}, fmt.Errorf("start_date: %w", err)
	}
	fixed, err := c.Fixed()
	if err != nil {
		return planner.Input{}, fmt.Errorf("fixed_vacation_days: %w", err)
	}
	numbering, err := planner.ParseWeekNumbering(c.WeekNumbering)
	if err != nil {
		return planner.Input{}, err
	}
	return planner.Input{
		Region:            c.Region,
		Holidays:          set,
		StartDate:         start,
		VacationDays:      c.VacationDays,
		FixedVacationDays: fixed,
		Numbering:         numbering,
		AnchorPrevious:    c.AnchorPrevious,
	}, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (parent directory created as needed) and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("default config written", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".vacplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
