package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-forecast/internal/models"
)

var (
	inputPath    string
	jsonOutput   bool
	lifetimeDays int
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project DAU from a request file",
	Long:  "Reads a YAML or JSON forecast request and prints the day-by-day DAU projection.",
	RunE:  runForecast,
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a retention curve from a request file",
	RunE:  runFit,
}

var lifetimeCmd = &cobra.Command{
	Use:   "lifetime",
	Short: "Compute LT-n (retention summed from day 0 to n) from a request file",
	RunE:  runLifetime,
}

func init() {
	for _, cmd := range []*cobra.Command{forecastCmd, fitCmd, lifetimeCmd} {
		cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Request file (YAML or JSON); - reads stdin")
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
		_ = cmd.MarkFlagRequired("input")
	}
	lifetimeCmd.Flags().IntVarP(&lifetimeDays, "days", "n", -1, "Override the number of days n")
}

func runForecast(cmd *cobra.Command, args []string) error {
	var req models.ForecastRequest
	if err := readRequest(cmd.InOrStdin(), inputPath, &req); err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc := newService(cfg, logger)
	defer svc.close()

	res, err := svc.RunForecast(cmd.Context(), req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, res)
	}
	printFit(out, res.Fit)
	return printSeries(out, res.Series)
}

func runFit(cmd *cobra.Command, args []string) error {
	var req models.FitRequest
	if err := readRequest(cmd.InOrStdin(), inputPath, &req); err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc := newService(cfg, logger)
	defer svc.close()

	fit, err := svc.RunFit(cmd.Context(), req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), fit)
	}
	printFit(cmd.OutOrStdout(), fit)
	return nil
}

func runLifetime(cmd *cobra.Command, args []string) error {
	var req models.LifetimeRequest
	if err := readRequest(cmd.InOrStdin(), inputPath, &req); err != nil {
		return err
	}
	if lifetimeDays >= 0 {
		req.Days = lifetimeDays
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc := newService(cfg, logger)
	defer svc.close()

	res, err := svc.RunLifetime(cmd.Context(), req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "LT-%d (including day 0): %.4f\n", res.Days, res.Lifetime)
	return nil
}

// readRequest decodes YAML, which also accepts JSON documents.
func readRequest(stdin io.Reader, path string, dst any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printFit(w io.Writer, fit models.RetentionFit) {
	if !fit.Defined {
		fmt.Fprintln(w, "At least two retention points are needed to fit a curve.")
		return
	}
	fmt.Fprintln(w, fit.Formula())
	fmt.Fprintf(w, "R² = %.4f (%d points)\n", fit.RSquared, fit.Points)
}

func printSeries(w io.Writer, series []float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "day\tDAU\t")
	for day, dau := range series {
		fmt.Fprintf(tw, "%d\t%.0f\t\n", day, math.Round(dau))
	}
	return tw.Flush()
}
