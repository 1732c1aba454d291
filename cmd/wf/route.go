package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/polyline"
	"github.com/franz/wayfarer/internal/report"
	"github.com/franz/wayfarer/internal/route"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/ui"
	"github.com/franz/wayfarer/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Fetch, record and manage saved routes",
}

var routeFetchCmd = &cobra.Command{
	Use:   "fetch <origin> <destination>",
	Short: "Fetch directions between two places",
	Long: `Fetch a route from the directions service and print its summary.

Responses are cached in the local database, so a route fetched once is
available offline. Use --save to keep the route in your saved routes.`,
	Args: cobra.ExactArgs(2),
	RunE: runRouteFetch,
}

var routeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved routes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRouteList,
}

var routeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved route",
	Args:  cobra.ExactArgs(1),
	RunE:  runRouteShow,
}

var routeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved route",
	Args:  cobra.ExactArgs(1),
	RunE:  runRouteDelete,
}

var routeGeocodeCmd = &cobra.Command{
	Use:   "geocode <query>",
	Short: "Resolve a place name to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRouteGeocode,
}

var routeRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a breadcrumb path from a location track",
	Long: `Record a path by sampling a location source at a fixed interval.

The source is a track file (JSON array, JSON lines or "lat,lng" lines)
replayed one point per sample. Recording stops when the track runs out or
on Ctrl-C. The path is saved only when confirmed, with --yes or at the
prompt; otherwise it is discarded.`,
	Args: cobra.NoArgs,
	RunE: runRouteRecord,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.AddCommand(routeFetchCmd, routeListCmd, routeShowCmd, routeDeleteCmd, routeGeocodeCmd, routeRecordCmd)

	routeFetchCmd.Flags().Bool("save", false, "save the fetched route")
	routeFetchCmd.Flags().String("name", "", "name for the saved route")

	routeShowCmd.Flags().Bool("points", false, "print every decoded point")

	routeRecordCmd.Flags().String("source", "", "track file to replay (required)")
	routeRecordCmd.Flags().Duration("interval", 0, "sampling interval (default 5s)")
	routeRecordCmd.Flags().String("name", "", "name for the saved route")
	routeRecordCmd.Flags().BoolP("yes", "y", false, "save without asking")
	routeRecordCmd.MarkFlagRequired("source")
	viper.BindPFlag("record-interval", routeRecordCmd.Flags().Lookup("interval"))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func runRouteFetch(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	_, cache, err := newDirections(db)
	if err != nil {
		return err
	}

	if GetConfigString("maps-api-key", "") == "" {
		util.WarnLog("No maps API key configured (set WF_MAPS_API_KEY); only cached routes are available")
	}

	planner := route.NewPlanner(&route.PlannerConfig{Fetcher: cache, Store: db, Logger: logger})

	util.InfoLog("Fetching route: %s → %s", args[0], args[1])
	planned, err := planner.Fetch(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Title(planned.Record.Name))
	fmt.Fprintf(out, "  Distance: %s\n", planned.Result.Distance)
	fmt.Fprintf(out, "  Duration: %s\n", planned.Result.Duration)
	fmt.Fprintf(out, "  Points:   %d\n", len(planned.Points))

	save, _ := cmd.Flags().GetBool("save")
	if !save {
		util.InfoLog("Not saved (use --save to keep it)")
		return nil
	}

	name, _ := cmd.Flags().GetString("name")
	_, err = planner.Save(planned, name)
	return err
}

func runRouteList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprint(cmd.OutOrStdout(), ui.RenderRoutes(db.ListRoutes(), time.Now()))
	return nil
}

func runRouteShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rec := db.GetRoute(id)
	points, err := route.Load(rec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Title(rec.Name))
	fmt.Fprintf(out, "  Saved:    %s\n", ui.RelativeTime(rec.Timestamp, time.Now()))
	if rec.IsRecorded() {
		fmt.Fprintln(out, "  Source:   recorded on device")
	} else {
		fmt.Fprintf(out, "  Distance: %s\n", rec.Distance)
		fmt.Fprintf(out, "  Duration: %s\n", rec.Duration)
	}
	fmt.Fprintf(out, "  Points:   %d\n", len(points))
	fmt.Fprintf(out, "  Length:   %s\n", report.FormatMeters(polyline.Length(points)))
	if box, ok := polyline.Bounds(points); ok {
		fmt.Fprintf(out, "  Bounds:   %.5f,%.5f → %.5f,%.5f\n",
			box.SouthWest.Latitude, box.SouthWest.Longitude,
			box.NorthEast.Latitude, box.NorthEast.Longitude)
	}

	if showPoints, _ := cmd.Flags().GetBool("points"); showPoints {
		for _, p := range points {
			fmt.Fprintf(out, "%.5f,%.5f\n", p.Latitude, p.Longitude)
		}
	}
	return nil
}

func runRouteDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return deleteRecord(store.KindRoute, args[0], func(db *store.Store) error {
		return db.DeleteRoute(id)
	})
}

func runRouteGeocode(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	client, _, err := newDirections(db)
	if err != nil {
		return err
	}

	point, address, err := client.Geocode(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.6f,%.6f  %s\n", point.Latitude, point.Longitude, address)
	return nil
}

func runRouteRecord(cmd *cobra.Command, args []string) error {
	sourcePath, _ := cmd.Flags().GetString("source")
	name, _ := cmd.Flags().GetString("name")
	yes, _ := cmd.Flags().GetBool("yes")

	track, err := route.LoadTrackFile(sourcePath)
	if err != nil {
		return err
	}
	util.InfoLog("Loaded %d track points from %s", len(track), sourcePath)

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	interval := util.GetRecordInterval()
	recorder := route.NewRecorder(route.NewReplaySource(track, false), interval)

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Recording"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("points"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	recorder.OnPoint(func(p polyline.Point, n int) {
		if bar != nil {
			bar.Add(1)
		} else {
			util.DebugLog("Point %d: %.5f,%.5f", n, p.Latitude, p.Longitude)
		}
	})

	util.InfoLog("Recording every %s (Ctrl-C to stop)", interval)
	if err := recorder.Start(ctx); err != nil {
		return err
	}

	select {
	case <-recorder.Done():
	case <-ctx.Done():
	}
	recorder.Stop()
	if bar != nil {
		bar.Finish()
	}

	points := recorder.Points()
	util.InfoLog("Recorded %d points over %s (%s)", len(points),
		recorder.Elapsed().Round(time.Second), report.FormatMeters(polyline.Length(points)))

	if !yes && !confirm("Save this recording?") {
		recorder.Discard()
		logger.LogRecord(name, len(points), false, recorder.Elapsed())
		util.InfoLog("Recording discarded")
		return nil
	}

	rec, err := recorder.Save(db, name)
	logger.LogRecord(name, len(points), err == nil, recorder.Elapsed())
	if err != nil {
		return err
	}
	logger.LogSave(string(store.KindRoute), rec.ID, nil)
	return nil
}

// confirm asks a yes/no question when a user is at the terminal. Without
// one the answer is no.
func confirm(question string) bool {
	if !util.Interactive() {
		return false
	}
	return util.Confirm(os.Stdin, os.Stderr, question)
}

// deleteRecord opens the store, runs del and logs the outcome
func deleteRecord(kind store.Kind, id string, del func(*store.Store) error) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	err = del(db)
	logger.LogDelete(string(kind), id, err)
	if err != nil {
		return err
	}
	util.SuccessLog("Deleted %s %s", kind, id)
	return nil
}
