package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ridewise/internal/conditions"
	"ridewise/internal/types"
)

func newScoreCmd() *cobra.Command {
	var (
		file    string
		asJSON  bool
		temp    float64
		wind    float64
		precip  float64
		prob    float64
		code    int
		reading types.WeatherReading
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a weather reading for riding",
		Long: `Score a weather reading given as flags or as a JSON document (--file, "-"
for stdin). Flags that are not given are treated as unreported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				if err := readReading(cmd, file, &reading); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("temp") {
				reading.TemperatureC = types.Float64(temp)
			}
			if flags.Changed("wind") {
				reading.WindSpeedMS = types.Float64(wind)
			}
			if flags.Changed("precip") {
				reading.PrecipitationMM = types.Float64(precip)
			}
			if flags.Changed("prob") {
				reading.PrecipitationProbability = types.Float64(prob)
			}
			if flags.Changed("code") {
				reading.WeatherCode = types.Int(code)
			}
			if err := types.ValidateReading(&reading); err != nil {
				return err
			}
			return printConditions(cmd.OutOrStdout(), conditions.Score(reading), reading.WeatherCode, asJSON)
		},
	}

	f := cmd.Flags()
	f.StringVar(&file, "file", "", `JSON reading to score ("-" reads stdin)`)
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	f.Float64Var(&temp, "temp", 0, "temperature in °C")
	f.Float64Var(&wind, "wind", 0, "wind speed in m/s")
	f.Float64Var(&precip, "precip", 0, "precipitation in mm")
	f.Float64Var(&prob, "prob", 0, "precipitation probability in percent")
	f.IntVar(&code, "code", 0, "WMO weather code")
	return cmd
}

func readReading(cmd *cobra.Command, file string, dst *types.WeatherReading) error {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return types.NewAppError(types.ErrCodeValidationFailed, "reading is not valid JSON", err)
	}
	return nil
}

func newCodeCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "code [CODE]",
		Short: "Describe a WMO weather code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, c := range conditions.KnownCodes() {
					printCode(out, conditions.Classify(types.Int(c)))
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a weather code or --list is required")
			}
			c, err := strconv.Atoi(args[0])
			if err != nil {
				return types.NewAppError(types.ErrCodeValidationInvalidCode, "weather code must be an integer", nil)
			}
			printCode(out, conditions.Classify(&c))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list every known code")
	return cmd
}

func printCode(w io.Writer, info types.WeatherCodeInfo) {
	code := "-"
	if info.Code != nil {
		code = strconv.Itoa(*info.Code)
	}
	fmt.Fprintf(w, "%3s  %s  %s (%s)\n", code, info.Emoji, info.Label, info.Symbol)
}

// printConditions renders a verdict for the terminal, or as JSON.
func printConditions(w io.Writer, rc types.RidingConditions, code *int, asJSON bool) error {
	info := conditions.Classify(code)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Conditions  types.RidingConditions `json:"conditions"`
			WeatherCode types.WeatherCodeInfo  `json:"weather_code"`
		}{rc, info})
	}

	fmt.Fprintf(w, "Score:   %d/100 (%s)\n", rc.Score, rc.Suitability)
	fmt.Fprintf(w, "Weather: %s %s\n", info.Emoji, info.Label)
	writeList(w, "Alerts", rc.Alerts)
	writeList(w, "Recommendations", rc.Recommendations)
	return nil
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
