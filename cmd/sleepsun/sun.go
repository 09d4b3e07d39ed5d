package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"sleepsun/internal/bootstrap"
	suntimesdto "sleepsun/internal/modules/suntimes/dto"
)

type sunLookup func(ctx context.Context, date string, lat, lon float64) (suntimesdto.SunTimesOutput, error)

func printSun(cmd *cobra.Command, s suntimesdto.SunTimesOutput) {
	printf(cmd, "%s\t%.2f,%.2f\trise %s\tset %s\tday %s\t%s\n",
		s.Date, s.Lat, s.Lon,
		time.Unix(s.Sunrise, 0).Local().Format("15:04"),
		time.Unix(s.Sunset, 0).Local().Format("15:04"),
		time.Duration(s.Daylength)*time.Second, s.Source)
}

func today() string {
	return time.Now().UTC().Format(time.DateOnly)
}

func newSunCmd(flags *rootFlags) *cobra.Command {
	sun := &cobra.Command{Use: "sun", Short: "Sunrise and sunset commands"}

	var (
		date     string
		lat, lon float64
	)
	addCoordFlags := func(c *cobra.Command) {
		c.Flags().Float64Var(&lat, "lat", 0, "latitude (default: configured location)")
		c.Flags().Float64Var(&lon, "lon", 0, "longitude (default: configured location)")
	}
	addDateFlag := func(c *cobra.Command) {
		c.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default: today, UTC)")
	}
	dateOrToday := func() string {
		if date == "" {
			return today()
		}
		return date
	}

	// single wires a one-date lookup through lookup.
	single := func(use, short string, lookup func(*bootstrap.App) sunLookup) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, flags, func(app *bootstrap.App) error {
					coords, err := coordinates(cmd, app, lat, lon)
					if err != nil {
						return err
					}
					out, err := lookup(app)(cmd.Context(), dateOrToday(), coords.Lat, coords.Lon)
					if err != nil {
						return err
					}
					return emit(cmd, flags, out, func() { printSun(cmd, out) })
				})
			},
		}
		addDateFlag(c)
		addCoordFlags(c)
		return c
	}

	getCmd := single("get", "Show cached sun times", func(app *bootstrap.App) sunLookup {
		return app.SunCLI.Get
	})
	requestCmd := single("request", "Show sun times, fetching and caching them when missing", func(app *bootstrap.App) sunLookup {
		return app.SunCLI.Request
	})
	estimateCmd := single("estimate", "Compute sun times offline", func(app *bootstrap.App) sunLookup {
		return app.SunCLI.Estimate
	})

	var sunrise, sunset string
	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Store sun times for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				coords, err := coordinates(cmd, app, lat, lon)
				if err != nil {
					return err
				}
				out, err := app.SunCLI.Put(cmd.Context(), suntimesdto.PutInput{
					Date:    dateOrToday(),
					Lat:     coords.Lat,
					Lon:     coords.Lon,
					Sunrise: sunrise,
					Sunset:  sunset,
				})
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() { printSun(cmd, out) })
			})
		},
	}
	addDateFlag(putCmd)
	addCoordFlags(putCmd)
	putCmd.Flags().StringVar(&sunrise, "sunrise", "", "sunrise time (epoch or RFC3339)")
	putCmd.Flags().StringVar(&sunset, "sunset", "", "sunset time (epoch or RFC3339)")
	_ = putCmd.MarkFlagRequired("sunrise")
	_ = putCmd.MarkFlagRequired("sunset")

	var from, to string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached sun times, optionally for one location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				items, err := app.SunCLI.List(cmd.Context(), from, to, optionalFloat(cmd, "lat", lat), optionalFloat(cmd, "lon", lon))
				if err != nil {
					return err
				}
				return emit(cmd, flags, items, func() {
					if len(items) == 0 {
						printf(cmd, "no sun times\n")
					}
					for _, s := range items {
						printSun(cmd, s)
					}
				})
			})
		},
	}
	listCmd.Flags().StringVar(&from, "from", "", "first date (default: unbounded)")
	listCmd.Flags().StringVar(&to, "to", "", "last date (default: unbounded)")
	listCmd.Flags().Float64Var(&lat, "lat", 0, "latitude filter")
	listCmd.Flags().Float64Var(&lon, "lon", 0, "longitude filter")

	rangeCmd := &cobra.Command{
		Use:   "range",
		Short: "Fill the cache for every date in a range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				coords, err := coordinates(cmd, app, lat, lon)
				if err != nil {
					return err
				}
				rangeStart, rangeEnd := from, to
				if rangeEnd == "" {
					rangeEnd = today()
				}
				if rangeStart == "" {
					rangeStart = time.Now().UTC().AddDate(0, 0, -7).Format(time.DateOnly)
				}
				out, err := app.SunCLI.RequestList(cmd.Context(), rangeStart, rangeEnd, coords.Lat, coords.Lon)
				if err != nil {
					return err
				}
				failed := make([]map[string]string, 0, len(out.Failed))
				for _, f := range out.Failed {
					failed = append(failed, map[string]string{"date": f.Date, "error": f.Err.Error()})
				}
				report := map[string]any{
					"records":   out.Records,
					"cached":    out.Cached,
					"fetched":   out.Fetched,
					"estimated": out.Estimated,
					"failed":    failed,
				}
				return emit(cmd, flags, report, func() {
					for _, s := range out.Records {
						printSun(cmd, s)
					}
					for _, f := range out.Failed {
						printf(cmd, "%s\tfailed: %v\n", f.Date, f.Err)
					}
					printf(cmd, "cached=%d fetched=%d estimated=%d failed=%d\n", out.Cached, out.Fetched, out.Estimated, len(out.Failed))
				})
			})
		},
	}
	rangeCmd.Flags().StringVar(&from, "from", "", "first date (default: a week ago)")
	rangeCmd.Flags().StringVar(&to, "to", "", "last date (default: today)")
	addCoordFlags(rangeCmd)

	var at string
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Show how far the day or night has advanced",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				coords, err := coordinates(cmd, app, lat, lon)
				if err != nil {
					return err
				}
				when := at
				if when == "" {
					when = time.Now().UTC().Format(time.RFC3339)
				}
				out, err := app.SunCLI.Progress(cmd.Context(), when, coords.Lat, coords.Lon)
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					phase := "night"
					if out.Daylight {
						phase = "day"
					}
					printf(cmd, "%s\t%s %.1f%%\n", out.At.Local().Format("2006-01-02 15:04"), phase, absPercent(out.Progress))
					printSun(cmd, out.Record)
				})
			})
		},
	}
	progressCmd.Flags().StringVar(&at, "at", "", "instant to evaluate (default: now)")
	addCoordFlags(progressCmd)

	sun.AddCommand(getCmd, putCmd, listCmd, requestCmd, rangeCmd, estimateCmd, progressCmd)
	return sun
}

func absPercent(p float64) float64 {
	if p < 0 {
		p = -p
	}
	return p * 100
}
