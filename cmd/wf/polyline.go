package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/franz/wayfarer/internal/polyline"
	"github.com/franz/wayfarer/internal/route"
	"github.com/spf13/cobra"
)

var polylineCmd = &cobra.Command{
	Use:   "polyline",
	Short: "Decode and encode Google polylines",
}

var polylineDecodeCmd = &cobra.Command{
	Use:   "decode <encoded>",
	Short: "Decode a polyline into points",
	Long: `Decode a Google-encoded polyline and print one "lat,lng" per line,
or a JSON array with --json. Reads the polyline from stdin when the
argument is "-".`,
	Args: cobra.ExactArgs(1),
	RunE: runPolylineDecode,
}

var polylineEncodeCmd = &cobra.Command{
	Use:   "encode [track-file]",
	Short: "Encode points into a polyline",
	Long: `Encode a track (JSON array, JSON lines or "lat,lng" lines) into a
Google polyline. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPolylineEncode,
}

func init() {
	rootCmd.AddCommand(polylineCmd)
	polylineCmd.AddCommand(polylineDecodeCmd, polylineEncodeCmd)

	polylineDecodeCmd.Flags().Bool("json", false, "print a JSON array")
}

func runPolylineDecode(cmd *cobra.Command, args []string) error {
	encoded := args[0]
	if encoded == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		encoded = strings.TrimSpace(string(data))
	}

	points, err := polyline.Decode(encoded)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	}
	for _, p := range points {
		fmt.Fprintf(out, "%.5f,%.5f\n", p.Latitude, p.Longitude)
	}
	return nil
}

func runPolylineEncode(cmd *cobra.Command, args []string) error {
	var (
		points []polyline.Point
		err    error
	)
	if len(args) == 1 && args[0] != "-" {
		points, err = route.LoadTrackFile(args[0])
	} else {
		points, err = route.LoadTrack(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), polyline.Encode(points))
	return nil
}
