package main

import (
	"time"

	"github.com/spf13/cobra"

	"sleepsun/internal/bootstrap"
	recorddomain "sleepsun/internal/modules/record/domain"
	sessiondto "sleepsun/internal/modules/session/dto"
)

func newSessionCmd(flags *rootFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Sleep session commands"}

	printSession := func(cmd *cobra.Command, s sessiondto.SessionOutput) error {
		return emit(cmd, flags, s, func() {
			printf(cmd, "%s\t%s\t%s\t%s\t%s\n", s.ID, formatEpoch(s.Start), formatEpoch(s.End), s.Duration, formatCoords(s.Lat, s.Lon))
		})
	}

	var (
		id, start, end string
		lat, lon       float64
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Record a finished sleep session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Create(cmd.Context(), sessiondto.CreateInput{
					ID:    id,
					Start: start,
					End:   end,
					Lat:   optionalFloat(cmd, "lat", lat),
					Lon:   optionalFloat(cmd, "lon", lon),
				})
				if err != nil {
					return err
				}
				return printSession(cmd, out)
			})
		},
	}
	createCmd.Flags().StringVar(&id, "id", "", "session id (generated when empty)")
	createCmd.Flags().StringVar(&start, "start", "", "start time (epoch seconds/ms or RFC3339)")
	createCmd.Flags().StringVar(&end, "end", "", "end time (epoch seconds/ms or RFC3339)")
	createCmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	createCmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printSession(cmd, out)
			})
		},
	}

	var clearLocation bool
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				input := sessiondto.UpdateInput{
					ID:    args[0],
					Start: optionalString(cmd, "start", start),
					End:   optionalString(cmd, "end", end),
				}
				if cmd.Flags().Changed("lat") {
					input.Lat = recorddomain.Patch(&lat)
				}
				if cmd.Flags().Changed("lon") {
					input.Lon = recorddomain.Patch(&lon)
				}
				if clearLocation {
					input.Lat, input.Lon = recorddomain.Patch(nil), recorddomain.Patch(nil)
				}
				out, err := app.SessionCLI.Update(cmd.Context(), input)
				if err != nil {
					return err
				}
				return printSession(cmd, out)
			})
		},
	}
	updateCmd.Flags().StringVar(&start, "start", "", "new start time")
	updateCmd.Flags().StringVar(&end, "end", "", "new end time")
	updateCmd.Flags().Float64Var(&lat, "lat", 0, "new latitude")
	updateCmd.Flags().Float64Var(&lon, "lon", 0, "new longitude")
	updateCmd.Flags().BoolVar(&clearLocation, "clear-location", false, "remove the stored coordinates")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				deleted, err := app.SessionCLI.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(cmd, flags, map[string]bool{"deleted": deleted}, func() {
					if deleted {
						printf(cmd, "deleted %s\n", args[0])
					} else {
						printf(cmd, "no session %s\n", args[0])
					}
				})
			})
		},
	}

	var from, to, match string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions in a time range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				rangeStart, rangeEnd := defaultRange(from, to)
				items, err := app.SessionCLI.List(cmd.Context(), rangeStart, rangeEnd, match)
				if err != nil {
					return err
				}
				return emit(cmd, flags, items, func() {
					if len(items) == 0 {
						printf(cmd, "no sessions\n")
					}
					for _, s := range items {
						printf(cmd, "%s\t%s\t%s\t%s\t%s\n", s.ID, formatEpoch(s.Start), formatEpoch(s.End), s.Duration, formatCoords(s.Lat, s.Lon))
					}
				})
			})
		},
	}
	listCmd.Flags().StringVar(&from, "from", "", "range start (default: a week ago)")
	listCmd.Flags().StringVar(&to, "to", "", "range end (default: now)")
	listCmd.Flags().StringVar(&match, "match", string(recorddomain.MatchOverlapping), "overlapping|contained")

	var noLocation bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start tracking a sleep session now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				var latPtr, lonPtr *float64
				if !noLocation {
					coords, err := coordinates(cmd, app, lat, lon)
					if err != nil {
						return err
					}
					latPtr, lonPtr = &coords.Lat, &coords.Lon
				}
				out, err := app.SessionCLI.Start(cmd.Context(), latPtr, lonPtr)
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "tracking %s since %s\n", out.ID, out.StartedAt.Local().Format("15:04:05"))
					if out.Replaced != nil {
						printf(cmd, "replaced session started %s\n", out.Replaced.Local().Format("2006-01-02 15:04"))
					}
				})
			})
		},
	}
	startCmd.Flags().Float64Var(&lat, "lat", 0, "latitude (default: configured location)")
	startCmd.Flags().Float64Var(&lon, "lon", 0, "longitude (default: configured location)")
	startCmd.Flags().BoolVar(&noLocation, "no-location", false, "do not record coordinates")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking and save the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Stop(cmd.Context(), optionalFloat(cmd, "lat", lat), optionalFloat(cmd, "lon", lon))
				if err != nil {
					return err
				}
				return printSession(cmd, out)
			})
		},
	}
	stopCmd.Flags().Float64Var(&lat, "lat", 0, "latitude when the start had none")
	stopCmd.Flags().Float64Var(&lon, "lon", 0, "longitude when the start had none")

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Show the session being tracked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.GetActive(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "%s\tsince %s\t%s\t%s\n", out.ID, out.StartedAt.Local().Format("2006-01-02 15:04"), out.Elapsed.Truncate(time.Second), formatCoords(out.Lat, out.Lon))
				})
			})
		},
	}

	var resync bool
	countersCmd := &cobra.Command{
		Use:   "counters",
		Short: "Show session counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				get := app.SessionCLI.Counters
				if resync {
					get = app.SessionCLI.ResyncCounters
				}
				out, err := get(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "sessions=%d last=%s\n", out.SessionCount, out.LastSessionID)
				})
			})
		},
	}
	countersCmd.Flags().BoolVar(&resync, "resync", false, "recount from storage first")

	session.AddCommand(createCmd, getCmd, updateCmd, deleteCmd, listCmd, startCmd, stopCmd, activeCmd, countersCmd)
	return session
}
