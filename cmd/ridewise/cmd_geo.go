package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ridewise/internal/conditions"
	"ridewise/internal/geo"
	"ridewise/internal/types"
)

func newDistanceCmd() *cobra.Command {
	var lat1, lon1, lat2, lon2 float64
	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Great-circle distance between two points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := types.ValidateCoordinates(lat1, lon1); err != nil {
				return err
			}
			if err := types.ValidateCoordinates(lat2, lon2); err != nil {
				return err
			}
			m := geo.Distance(lat1, lon1, lat2, lon2)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%.0f m)\n", geo.FormatDistance(&m), m)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat1, "lat1", 0, "latitude of the first point")
	f.Float64Var(&lon1, "lon1", 0, "longitude of the first point")
	f.Float64Var(&lat2, "lat2", 0, "latitude of the second point")
	f.Float64Var(&lon2, "lon2", 0, "longitude of the second point")
	for _, name := range []string{"lat1", "lon1", "lat2", "lon2"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTileCmd() *cobra.Command {
	var (
		lat, lon float64
		zoom     int
		template string
	)
	cmd := &cobra.Command{
		Use:   "tile",
		Short: "Slippy-map tile containing a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := types.ValidateCoordinates(lat, lon); err != nil {
				return err
			}
			if err := types.ValidateZoom(zoom); err != nil {
				return err
			}
			t := geo.TileFor(lat, lon, zoom)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d/%d/%d\n", t.Zoom, t.X, t.Y)
			fmt.Fprintln(out, geo.TileURL(template, t))
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lon, "lon", 0, "longitude")
	f.IntVar(&zoom, "zoom", 14, "zoom level")
	f.StringVar(&template, "template", geo.DefaultTileTemplate, "tile server URL template")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newConditionsCmd(a *app) *cobra.Command {
	var (
		lat, lon float64
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Fetch live weather and score it for riding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := types.ValidateCoordinates(lat, lon); err != nil {
				return err
			}
			src, err := a.openWeather(cmd.Context())
			if err != nil {
				return err
			}
			reading, err := src.GetReading(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			return printConditions(cmd.OutOrStdout(), conditions.Score(*reading), reading.WeatherCode, asJSON)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lon, "lon", 0, "longitude")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
