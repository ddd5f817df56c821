package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miradorstack/mirador-forecast/internal/models"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MIRADOR_FORECAST_CONFIG", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		inputPath, jsonOutput, lifetimeDays = "", false, -1
		configPath, logLevel = "", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeRequest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return path
}

func TestForecastCommandJSON(t *testing.T) {
	path := writeRequest(t, `current_dau: 1000
forecast_days: 5
churn_rate: 0
daily_new_users: 0
retention:
  - day: 1
    rate: 0.4
  - day: 7
    rate: 0.1
`)
	out, err := runCommand(t, "forecast", "--input", path, "--json", "--log-level", "error")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	var res models.ForecastResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(res.Series) != 6 || res.Series[5] != 1000 {
		t.Fatalf("unexpected series %v", res.Series)
	}
}

func TestForecastCommandTable(t *testing.T) {
	path := writeRequest(t, `{"current_dau": 0, "forecast_days": 3, "churn_rate": 0, "acquisition": [100, 100, 100], "retention": []}`)
	out, err := runCommand(t, "forecast", "-i", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if !strings.Contains(out, "At least two retention points") {
		t.Fatalf("expected insufficient data notice, got:\n%s", out)
	}
	if !strings.Contains(out, "DAU") {
		t.Fatalf("expected table header, got:\n%s", out)
	}
}

func TestLifetimeCommand(t *testing.T) {
	path := writeRequest(t, `days: 7
retention:
  - {day: 1, rate: 0.4}
  - {day: 7, rate: 0.1}
`)
	out, err := runCommand(t, "lifetime", "-i", path, "--days", "0", "--log-level", "error")
	if err != nil {
		t.Fatalf("lifetime: %v", err)
	}
	if !strings.Contains(out, "LT-0 (including day 0): 1.0000") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFitCommandRejectsZeroRate(t *testing.T) {
	path := writeRequest(t, `retention:
  - {day: 1, rate: 0}
  - {day: 7, rate: 0.1}
`)
	if _, err := runCommand(t, "fit", "-i", path, "--log-level", "error"); err == nil {
		t.Fatalf("expected error for zero rate")
	}
}
