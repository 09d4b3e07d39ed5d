package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sleepsun/internal/bootstrap"
	"sleepsun/internal/platform/location"
	"sleepsun/internal/ui/theme"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// emit prints v as JSON when --json is set, else runs text.
func emit(cmd *cobra.Command, flags *rootFlags, v any, text func()) error {
	if flags.jsonOut {
		return printJSON(cmd, v)
	}
	text()
	return nil
}

func formatEpoch(sec int64) string {
	return time.Unix(sec, 0).Local().Format("2006-01-02 15:04")
}

func formatCoords(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f,%.2f", *lat, *lon)
}

// optionalFloat returns nil unless the flag was set explicitly.
func optionalFloat(cmd *cobra.Command, name string, value float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func optionalString(cmd *cobra.Command, name, value string) any {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return value
}

// coordinates resolves --lat/--lon, falling back to the configured or
// estimated location.
func coordinates(cmd *cobra.Command, app *bootstrap.App, lat, lon float64) (location.Coordinates, error) {
	return app.Coordinates(cmd.Context(), optionalFloat(cmd, "lat", lat), optionalFloat(cmd, "lon", lon))
}

// defaultRange fills empty bounds with the trailing week.
func defaultRange(from, to string) (string, string) {
	now := time.Now().UTC()
	if strings.TrimSpace(to) == "" {
		to = now.Format(time.RFC3339)
	}
	if strings.TrimSpace(from) == "" {
		from = now.AddDate(0, 0, -7).Format(time.RFC3339)
	}
	return from, to
}

func bar(height, maxHeight float64, width int) string {
	if maxHeight <= 0 {
		return ""
	}
	filled := int(height / maxHeight * float64(width))
	return theme.Bar.Render(strings.Repeat("█", filled)) + strings.Repeat("·", width-filled)
}
