package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag in the tree to its default so one
// Execute does not leak into the next
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type testEnv struct {
	db     string
	events string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		db:     filepath.Join(dir, "wf.db"),
		events: filepath.Join(dir, "events"),
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runInput(t, "", args...)
}

func (e *testEnv) runInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { util.Configure(false, false) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(append([]string{"--db", e.db, "--events-dir", e.events, "--quiet"}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func (e *testEnv) open(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(e.db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPolylineCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "polyline", "decode", "_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	assert.Equal(t, "38.50000,-120.20000\n40.70000,-120.95000\n43.25200,-126.45300\n", out)

	out, err = env.runInput(t, "38.5,-120.2\n40.7,-120.95\n43.252,-126.453\n", "polyline", "encode")
	require.NoError(t, err)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@\n", out)

	out, err = env.run(t, "polyline", "decode", "--json", "_p~iF~ps|U")
	require.NoError(t, err)
	assert.Contains(t, out, `"latitude": 38.5`)

	_, err = env.run(t, "polyline", "decode", "_p~iF~ps|U_")
	assert.Error(t, err)
}

func TestRouteRecordAndManage(t *testing.T) {
	env := newTestEnv(t)

	track := filepath.Join(t.TempDir(), "walk.txt")
	require.NoError(t, os.WriteFile(track, []byte("# morning walk\n48.8566,2.3522\n48.8570,2.3530\n48.8575,2.3541\n"), 0644))

	_, err := env.run(t, "route", "record", "--source", track, "--interval", "1ms", "--name", "Seine walk", "--yes")
	require.NoError(t, err)

	routes := env.open(t).ListRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "Seine walk", routes[0].Name)
	assert.True(t, routes[0].IsRecorded())
	points, err := routes[0].Points()
	require.NoError(t, err)
	assert.Len(t, points, 3)

	out, err := env.run(t, "route", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Seine walk")
	assert.Contains(t, out, store.DistanceRecorded)

	out, err = env.run(t, "route", "show", "1", "--points")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded on device")
	assert.Contains(t, out, "48.85660,2.35220")

	// Without --yes and no terminal the recording is discarded
	_, err = env.run(t, "route", "record", "--source", track, "--interval", "1ms")
	require.NoError(t, err)
	assert.Equal(t, 1, env.open(t).Count(store.KindRoute))

	_, err = env.run(t, "route", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, 0, env.open(t).Count(store.KindRoute))

	_, err = env.run(t, "route", "show", "1")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestProfileCommands(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "profile", "set", "--id", "uid-1", "--name", "Ana", "--email", "ana@example.com", "--notifications")
	require.NoError(t, err)

	_, err = env.run(t, "profile", "set", "--id", "uid-1", "--voice", "nova")
	require.NoError(t, err)

	out, err := env.run(t, "profile", "show", "--id", "uid-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "nova")
	assert.Contains(t, out, "Notifications:   on")
	assert.Contains(t, out, "Voice assistant: on")
	assert.Contains(t, out, "App lock:        off")

	_, err = env.run(t, "profile", "set", "--id", "uid-1", "--email", "broken")
	assert.ErrorIs(t, err, util.ErrInvalidConfig)

	_, err = env.run(t, "profile", "show", "--id", "nobody")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestVoiceHistoryAndClear(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runInput(t, "Where is the station?\n\nThank you.\n", "voice", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Where is the station? Thank you.")

	_, err = env.runInput(t, "\n", "voice", "--save")
	require.NoError(t, err)

	s := env.open(t)
	assert.Equal(t, 1, s.Count(store.KindVoiceNote))
	_, err = s.InsertScan(&store.ScanRecord{Text: "SORTIE", ImageRef: "exit.png"})
	require.NoError(t, err)

	out, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "SORTIE")
	assert.Contains(t, out, "Where is the station?")

	out, err = env.run(t, "history", "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "SORTIE")
	assert.NotContains(t, out, "station")

	_, err = env.run(t, "history", "bogus")
	assert.Error(t, err)

	_, err = env.run(t, "delete", "scan", "1")
	require.NoError(t, err)
	assert.Equal(t, 0, env.open(t).Count(store.KindScan))

	// Without --yes and no terminal nothing is deleted
	_, err = env.run(t, "clear")
	require.NoError(t, err)
	assert.Equal(t, 1, env.open(t).Count(store.KindVoiceNote))

	_, err = env.run(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Equal(t, 0, env.open(t).Count(store.KindVoiceNote))
}

func TestTranslateOffline(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "translate", "--offline", "--from", "en", "--to", "es", "--save", "Exit")
	require.NoError(t, err)
	assert.Equal(t, "Salida\n", out)

	list := env.open(t).ListTranslations()
	require.Len(t, list, 1)
	assert.Equal(t, "es", list[0].TargetLang)

	// No French model and downloads not allowed: nothing printed or saved
	out, err = env.run(t, "translate", "--offline", "--from", "en", "--to", "fr", "--save", "Exit")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Len(t, env.open(t).ListTranslations(), 1)
}

func TestTranslateOfflineDefaultsToEnglish(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "translate", "--offline", "--to", "es", "Exit")
	require.NoError(t, err)
	assert.Equal(t, "Salida\n", out)

	_, err = env.run(t, "translate", "--offline", "--from", "auto", "--to", "es", "Exit")
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}

func TestTranslateOnlineUsesPhrasebookThenWeb(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Good morning", r.URL.Query().Get("q"))
		w.Write([]byte(`[[["Buenos días","Good morning",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	env := newTestEnv(t)

	out, err := env.run(t, "--translate-url", server.URL, "translate", "--from", "en", "--to", "es", "Exit")
	require.NoError(t, err)
	assert.Equal(t, "Salida\n", out)
	assert.Equal(t, int32(0), calls.Load())

	out, err = env.run(t, "--translate-url", server.URL, "translate", "--from", "en", "--to", "es", "Good morning")
	require.NoError(t, err)
	assert.Equal(t, "Buenos días\n", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReportCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runInput(t, "Thank you.\n", "voice", "--save")
	require.NoError(t, err)

	reportPath := filepath.Join(t.TempDir(), "summary.md")
	_, err = env.run(t, "report", "--out", reportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Wayfarer - Summary Report")
	assert.Contains(t, string(data), "| Voice Notes | 1 |")
}

func TestLatestEventLog(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", latestEventLog(dir))
	assert.Equal(t, "", latestEventLog(filepath.Join(dir, "missing")))

	for _, name := range []string{
		"events-20240101-090000-aaaaaaaa.jsonl",
		"events-20240301-090000-bbbbbbbb.jsonl",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	assert.Equal(t, filepath.Join(dir, "events-20240301-090000-bbbbbbbb.jsonl"), latestEventLog(dir))
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
