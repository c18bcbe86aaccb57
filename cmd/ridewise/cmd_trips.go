package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ridewise/internal/trips"
	"ridewise/internal/types"
)

const defaultListLimit = 50

func newWaypointCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Manage saved waypoints",
	}

	var (
		in       trips.WaypointInput
		lat, lon float64
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a waypoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Location = types.Location{Lat: lat, Lon: lon}
			return a.withTrips(cmd, func(s tripStore) error {
				wp, err := s.CreateWaypoint(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Waypoint created with ID: %s\n", wp.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "waypoint name")
	add.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	add.Flags().Float64Var(&lat, "lat", 0, "latitude")
	add.Flags().Float64Var(&lon, "lon", 0, "longitude")
	for _, name := range []string{"name", "lat", "lon"} {
		_ = add.MarkFlagRequired(name)
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved waypoints, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTrips(cmd, func(s tripStore) error {
				wps, err := s.ListWaypoints(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(wps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No waypoints saved yet.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tLAT\tLON")
				for _, wp := range wps {
					fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\n", wp.ID, wp.Name, wp.Location.Lat, wp.Location.Lon)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", defaultListLimit, "maximum number of waypoints")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a waypoint that no route references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTrips(cmd, func(s tripStore) error {
				if err := s.DeleteWaypoint(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Waypoint %s deleted\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

func newRouteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Manage planned routes",
	}

	var in trips.RouteInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Plan a route through saved waypoints",
		Long: `Plan a route through saved waypoints. Repeat --waypoint in riding order;
a waypoint may appear more than once for a loop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTrips(cmd, func(s tripStore) error {
				rt, err := s.CreateRoute(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Route created with ID: %s (%s)\n", rt.ID, rt.DistanceLabel)
				return nil
			})
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "route name")
	add.Flags().StringArrayVar(&in.WaypointIDs, "waypoint", nil, "waypoint ID, repeatable")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("waypoint")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List routes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTrips(cmd, func(s tripStore) error {
				routes, err := s.ListRoutes(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(routes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No routes planned yet.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSTOPS\tDISTANCE")
				for _, rt := range routes {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", rt.ID, rt.Name, len(rt.WaypointIDs), rt.DistanceLabel)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", defaultListLimit, "maximum number of routes")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a route and its stops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTrips(cmd, func(s tripStore) error {
				rt, err := s.GetRoute(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRoute(cmd.OutOrStdout(), rt)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, show)
	return cmd
}

func printRoute(w io.Writer, rt *types.Route) {
	fmt.Fprintf(w, "%s (%s)\n", rt.Name, rt.ID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for i, wp := range rt.Waypoints {
		fmt.Fprintf(w, "%2d. %s  %.5f, %.5f\n", i+1, wp.Name, wp.Location.Lat, wp.Location.Lon)
	}
	if missing := len(rt.WaypointIDs) - len(rt.Waypoints); missing > 0 {
		fmt.Fprintf(w, "    (%d stop(s) no longer exist)\n", missing)
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Total distance: %s\n", rt.DistanceLabel)
}
