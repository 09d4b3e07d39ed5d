package main

import (
	"time"

	"github.com/spf13/cobra"

	"sleepsun/internal/bootstrap"
)

func newStatsCmd(flags *rootFlags) *cobra.Command {
	stats := &cobra.Command{Use: "stats", Short: "Sleep statistics"}

	var (
		from, to string
		lat, lon float64
	)
	addRangeFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&from, "from", "", "range start (default: a week ago)")
		c.Flags().StringVar(&to, "to", "", "range end (default: now)")
	}
	addCoordFlags := func(c *cobra.Command) {
		c.Flags().Float64Var(&lat, "lat", 0, "latitude for sun times (default: latest session)")
		c.Flags().Float64Var(&lon, "lon", 0, "longitude for sun times (default: latest session)")
	}

	averagesCmd := &cobra.Command{
		Use:   "averages",
		Short: "Circular mean bedtime, wake time and mean duration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				rangeStart, rangeEnd := defaultRange(from, to)
				out, err := app.StatsCLI.Averages(cmd.Context(), rangeStart, rangeEnd)
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "sessions  %d\n", out.Count)
					printf(cmd, "bedtime   %s (R=%.2f)\n", out.Start.MeanTime, out.Start.Concentration)
					printf(cmd, "wake      %s (R=%.2f)\n", out.End.MeanTime, out.End.Concentration)
					printf(cmd, "duration  %s\n", out.DurationMeanTime)
				})
			})
		},
	}
	addRangeFlags(averagesCmd)

	var (
		sessionIDs []string
		maxHeight  float64
	)
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Nightly sleep totals as bars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				rangeStart, rangeEnd := from, to
				if len(sessionIDs) == 0 {
					rangeStart, rangeEnd = defaultRange(from, to)
				}
				buckets, err := app.StatsCLI.Graph(cmd.Context(), rangeStart, rangeEnd, sessionIDs, maxHeight)
				if err != nil {
					return err
				}
				return emit(cmd, flags, buckets, func() {
					top := 0.0
					for _, b := range buckets {
						top = max(top, b.Height)
					}
					for _, b := range buckets {
						printf(cmd, "%s %s %s\n", b.Date, bar(b.Height, top, 32), b.DurationTime)
					}
				})
			})
		},
	}
	addRangeFlags(graphCmd)
	graphCmd.Flags().StringSliceVar(&sessionIDs, "session", nil, "graph these sessions instead of a range")
	graphCmd.Flags().Float64Var(&maxHeight, "max-height", 0, "height of the longest night (default: config)")

	var split, offset time.Duration
	splitCmd := &cobra.Command{
		Use:   "split",
		Short: "Group sessions and sun times into fixed intervals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				rangeStart, rangeEnd := defaultRange(from, to)
				var offsetPtr *time.Duration
				if cmd.Flags().Changed("offset") {
					offsetPtr = &offset
				}
				intervals, err := app.StatsCLI.Split(cmd.Context(), rangeStart, rangeEnd, split, offsetPtr,
					optionalFloat(cmd, "lat", lat), optionalFloat(cmd, "lon", lon))
				if err != nil {
					return err
				}
				return emit(cmd, flags, intervals, func() {
					for _, in := range intervals {
						printf(cmd, "%s → %s\t%d sessions\t%d sun\n", formatEpoch(in.Start), formatEpoch(in.End), len(in.Sessions), len(in.SunTimes))
						for _, s := range in.Sessions {
							printf(cmd, "  %s\t%s - %s\n", s.ID, formatEpoch(s.Start), formatEpoch(s.End))
						}
					}
				})
			})
		},
	}
	addRangeFlags(splitCmd)
	addCoordFlags(splitCmd)
	splitCmd.Flags().DurationVar(&split, "split", 0, "interval width (default: config)")
	splitCmd.Flags().DurationVar(&offset, "offset", 0, "interval anchor offset from midnight (default: config with the configured split, else 0)")

	var units float64
	lifelineCmd := &cobra.Command{
		Use:   "lifeline",
		Short: "Lay sessions out on a continuous timeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				rangeStart, rangeEnd := defaultRange(from, to)
				out, err := app.StatsCLI.Lifeline(cmd.Context(), rangeStart, rangeEnd, units,
					optionalFloat(cmd, "lat", lat), optionalFloat(cmd, "lon", lon))
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "%s → %s\twidth %.2f\n", formatEpoch(out.RangeStart), formatEpoch(out.RangeEnd), out.Width)
					for _, e := range out.Entries {
						printf(cmd, "%s\toffset %.2f\twidth %.2f\tshift %.2f\n", e.Session.ID, e.Offset, e.Width, e.Shift)
					}
				})
			})
		},
	}
	addRangeFlags(lifelineCmd)
	addCoordFlags(lifelineCmd)
	lifelineCmd.Flags().Float64Var(&units, "units", 0, "layout units per day (default: config)")

	stats.AddCommand(averagesCmd, graphCmd, splitCmd, lifelineCmd)
	return stats
}
