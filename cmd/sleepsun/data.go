package main

import (
	"errors"

	"github.com/spf13/cobra"

	"sleepsun/internal/bootstrap"
	archiveadapter "sleepsun/internal/modules/archive/adapter/out"
)

func newDataCmd(flags *rootFlags) *cobra.Command {
	data := &cobra.Command{Use: "data", Short: "Export, import and clear stored records"}

	exportCmd := &cobra.Command{
		Use:   "export [path|-]",
		Short: "Write every record to a JSON snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := archiveadapter.Stdio
			if len(args) == 1 {
				path = args[0]
			}
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ArchiveCLI.Export(cmd.Context(), path)
				if err != nil {
					return err
				}
				if path == archiveadapter.Stdio {
					return nil
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "exported %d sessions and %d sun times to %s\n", out.SleepSessions, out.SunTimes, out.Path)
				})
			})
		},
	}

	var clearFirst bool
	importCmd := &cobra.Command{
		Use:   "import <path|->",
		Short: "Load records from a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				out, err := app.ArchiveCLI.Import(cmd.Context(), args[0], clearFirst)
				if err != nil {
					return err
				}
				return emit(cmd, flags, out, func() {
					printf(cmd, "imported %d sessions and %d sun times (%d sessions stored)\n", out.SleepSessions, out.SunTimes, out.SessionCount)
				})
			})
		},
	}
	importCmd.Flags().BoolVar(&clearFirst, "clear", false, "remove existing records before importing")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			return withApp(cmd, flags, func(app *bootstrap.App) error {
				if err := app.ArchiveCLI.Clear(cmd.Context()); err != nil {
					return err
				}
				return emit(cmd, flags, map[string]bool{"cleared": true}, func() {
					printf(cmd, "cleared\n")
				})
			})
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	data.AddCommand(exportCmd, importCmd, clearCmd)
	return data
}
