/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/panchangam/internal/festival"
	"github.com/friendsincode/panchangam/internal/panchangam"
	"github.com/friendsincode/panchangam/internal/server"
)

var (
	flagDate      string
	flagLat       float64
	flagLon       float64
	flagTZ        string
	flagYear      int
	flagMonth     int
	flagRegion    string
	flagICS       bool
	flagEventType string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Print the panchangam for a date and location",
	Long: `Compute one day without a server or cache and print it as JSON.

Examples:
  # Chennai today
  panchangd compute --lat 13.0827 --lon 80.2707

  # A specific date in another zone
  panchangd compute --date 2024-03-08 --lat 40.7128 --lon -74.0060 --tz America/New_York
`,
	RunE: runCompute,
}

var festivalsCmd = &cobra.Command{
	Use:   "festivals",
	Short: "Print the festival calendar for a month or year",
	Long: `Build a festival calendar and print it as JSON, or as iCalendar with --ics.

Examples:
  panchangd festivals --year 2024 --month 3 --lat 13.0827 --lon 80.2707 --region TN
  panchangd festivals --year 2024 --lat 28.7041 --lon 77.1025 --ics > festivals.ics
`,
	RunE: runFestivals,
}

var muhurthamCmd = &cobra.Command{
	Use:   "muhurtham",
	Short: "Print rated muhurtham periods for an event type",
	RunE:  runMuhurtham,
}

func addLocationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&flagLat, "lat", 0, "Latitude in degrees, north positive")
	cmd.Flags().Float64Var(&flagLon, "lon", 0, "Longitude in degrees, east positive")
	cmd.Flags().StringVar(&flagTZ, "tz", "", "IANA timezone (defaults to PANCHANG_DEFAULT_TZ)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
}

func init() {
	for _, cmd := range []*cobra.Command{computeCmd, festivalsCmd, muhurthamCmd} {
		addLocationFlags(cmd)
	}
	computeCmd.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD (defaults to today)")
	muhurthamCmd.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD (defaults to today)")
	muhurthamCmd.Flags().StringVar(&flagEventType, "event-type", "general", "Event type, e.g. marriage, griha_pravesh")
	festivalsCmd.Flags().IntVar(&flagYear, "year", time.Now().Year(), "Gregorian year")
	festivalsCmd.Flags().IntVar(&flagMonth, "month", 0, "Month 1-12 (0 for the whole year)")
	festivalsCmd.Flags().StringVar(&flagRegion, "region", "ALL", "Region code, e.g. TN, KL, MH")
	festivalsCmd.Flags().BoolVar(&flagICS, "ics", false, "Print iCalendar instead of JSON")

	rootCmd.AddCommand(computeCmd, festivalsCmd, muhurthamCmd)
}

// oneShot loads config and builds an uncached core.
func oneShot() (*server.Core, panchangam.Location, error) {
	if err := loadConfig(); err != nil {
		return nil, panchangam.Location{}, err
	}
	tz := flagTZ
	if tz == "" {
		tz = cfg.DefaultTimezone
	}
	loc, err := panchangam.NewLocation(flagLat, flagLon, tz)
	if err != nil {
		return nil, panchangam.Location{}, err
	}
	core, err := server.NewCore(cfg, nil, nil, logger)
	if err != nil {
		return nil, panchangam.Location{}, err
	}
	return core, loc, nil
}

func resolveDate(loc panchangam.Location) (panchangam.Date, error) {
	if flagDate != "" {
		return panchangam.ParseDate(flagDate)
	}
	z, err := loc.TZ()
	if err != nil {
		return panchangam.Date{}, err
	}
	return panchangam.DateOf(time.Now().In(z)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCompute(cmd *cobra.Command, args []string) error {
	core, loc, err := oneShot()
	if err != nil {
		return err
	}
	date, err := resolveDate(loc)
	if err != nil {
		return err
	}
	day, _, err := core.Lookup.Panchangam(contextOf(cmd), date, loc)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), day)
}

func runFestivals(cmd *cobra.Command, args []string) error {
	core, loc, err := oneShot()
	if err != nil {
		return err
	}
	q := festival.Query{Year: flagYear, Month: time.Month(flagMonth), Location: loc, Region: flagRegion}
	days, _, err := core.Lookup.FestivalCalendar(contextOf(cmd), q)
	if err != nil {
		return err
	}
	if flagICS {
		_, err := io.WriteString(cmd.OutOrStdout(), festival.ICS(days, festival.ICSOptions{
			Name: fmt.Sprintf("Festivals %s %d", festival.NormalizeRegion(flagRegion), flagYear),
		}))
		return err
	}
	return printJSON(cmd.OutOrStdout(), days)
}

func runMuhurtham(cmd *cobra.Command, args []string) error {
	core, loc, err := oneShot()
	if err != nil {
		return err
	}
	date, err := resolveDate(loc)
	if err != nil {
		return err
	}
	res, _, err := core.Lookup.Muhurtham(contextOf(cmd), date, loc, flagEventType)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
