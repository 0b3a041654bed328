package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacplan/internal/model"
	"vacplan/internal/report"
)

const bc2021 = `{"holidays":[
  {"date":"2021-01-01","nameEn":"New Year's Day","federal":1,"provinces":[{"id":"BC"}]},
  {"date":"2021-04-02","nameEn":"Good Friday","federal":1,"provinces":[{"id":"BC"}]},
  {"date":"2021-05-24","nameEn":"Victoria Day","federal":0,"provinces":[{"id":"BC"}]},
  {"date":"2021-07-01","nameEn":"Canada Day","federal":1,"provinces":[{"id":"BC"}]},
  {"date":"2021-08-02","nameEn":"British Columbia Day","federal":0,"provinces":[{"id":"BC"}]},
  {"date":"2021-09-06","nameEn":"Labour Day","federal":1,"provinces":[{"id":"BC"}]},
  {"date":"2021-10-11","nameEn":"Thanksgiving","federal":0,"provinces":[{"id":"BC"}]},
  {"date":"2021-11-11","nameEn":"Remembrance Day","federal":0,"provinces":[{"id":"BC"}]},
  {"date":"2021-12-27","nameEn":"Christmas Day","federal":0,"provinces":[{"id":"BC"}]}
]}`

// writeConfig points a fresh config at a local holidays API.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("year") != "2021" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bc2021))
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := fmt.Sprintf(`
region: BC
vacation_days: 14
holiday_api:
  url: %s/api/v1/holidays
  cache_dir: %s
  retries: 0
%s`, srv.URL, t.TempDir(), extra)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommandJSON(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := run(t, "--config", cfg, "plan", "--start", "2021-02-14", "--format", "json")
	require.NoError(t, err, out)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.VacationDays, 14)
	assert.Equal(t, model.NewDate(2021, time.April, 12), doc.VacationDays[0])
	assert.Equal(t, "Good Friday", doc.DaysOff[0].Name)
}

func TestPlanCommandFixedDaysAndICS(t *testing.T) {
	cfg := writeConfig(t, "")
	icsPath := filepath.Join(t.TempDir(), "plan.ics")

	out, err := run(t, "--config", cfg, "plan",
		"--start", "2021-02-14",
		"--days", "10",
		"--fixed", "2021-08-03,2021-08-04",
		"--ics", icsPath,
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "8 to place (+2 fixed)")
	assert.Contains(t, out, string(report.KindFixed))

	data, err := os.ReadFile(icsPath)
	require.NoError(t, err)
	assert.Equal(t, 8, strings.Count(string(data), "SUMMARY:Vacation day"))
}

func TestPlanCommandRejectsBadFlags(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := run(t, "--config", cfg, "plan", "--week-numbering", "lunar")
	assert.ErrorContains(t, err, "week_numbering")

	_, err = run(t, "--config", cfg, "plan", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "--config", cfg, "plan", "--start", "2021-02-14", "--region", "QC")
	assert.ErrorContains(t, err, "unknown region")
}

func TestExportCommand(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := run(t, "--config", cfg, "export", "--start", "2021-02-14", "--name", "Team BC", "--with-holidays=false")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "X-WR-CALNAME:Team BC")
	assert.Equal(t, 14, strings.Count(out, "BEGIN:VEVENT"))
}

func TestHolidaysCommand(t *testing.T) {
	cfg := writeConfig(t, `extra_days_off:
  - name: Shutdown
    rrule: FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=29,30
`)

	out, err := run(t, "--config", cfg, "holidays", "--year", "2021", "--region", "bc", "--format", "csv")
	require.NoError(t, err, out)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, []string{"BC", "2021-12-30", "Shutdown"}, rows[11])

	out, err = run(t, "--config", cfg, "holidays", "--year", "2021", "--region", "CA", "--format", "json")
	require.NoError(t, err, out)
	var entries []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 4)
}

func TestConfigCreatedOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacplan", "config.yaml")

	// The format check fails before any network access.
	_, err := run(t, "--config", path, "plan", "--format", "xml")
	require.Error(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
