package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/foldtable/internal/config"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterRules = `
name: counter
initial: {count: 0}
handlers:
  Counter:
    Incr:
      - {op: incr, path: count}
    Add:
      - {op: incr, path: count, from: payload.n}
  Reject:
    - {op: fail, message: nope}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(t *testing.T, environ ...string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(append([]string{"FOLDTABLE_LOG_LEVEL=error"}, environ...))
	require.NoError(t, err)
	return cfg
}

func testOptions(t *testing.T) Options {
	return Options{RulesPath: writeFile(t, "rules.yaml", counterRules)}
}

func TestDecodeEvents(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
		want   []string
	}{
		{"NDJSON", "{\"type\":\"a\"}\n{\"type\":\"b\"}\n", FormatJSON, []string{"a", "b"}},
		{"JSON Array", "  [{\"type\":\"a\"},{\"type\":\"b\"}]", FormatAuto, []string{"a", "b"}},
		{"YAML", "- type: a\n- type: b\n  payload: {n: 2}\n", FormatYAML, []string{"a", "b"}},
		{"Empty", "  \n", FormatJSON, nil},
		{"Empty YAML", "", FormatYAML, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := DecodeEvents(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)

			var types []string
			for _, e := range events {
				types = append(types, e.Type)
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestDecodeEvents_YAMLNumbersAreFloats(t *testing.T) {
	events, err := DecodeEvents(strings.NewReader("- type: a\n  payload: {n: 2, nested: {m: [1]}}\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2.0, events[0].Payload["n"])
	assert.Equal(t, map[string]any{"m": []any{1.0}}, events[0].Payload["nested"])
}

func TestDecodeEvents_Invalid(t *testing.T) {
	_, err := DecodeEvents(strings.NewReader("{\"type\":\"a\"}\n{oops"), FormatJSON)
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	app, err := NewApp(testConfig(t), testOptions(t))
	require.NoError(t, err)

	eventsPath := writeFile(t, "events.yaml", `
- type: Counter_Incr
- type: Counter_Add
  payload: {n: 5}
- type: Unknown
`)

	var out bytes.Buffer
	require.NoError(t, Fold(context.Background(), app, FoldOptions{EventsPath: eventsPath}, &out))

	var state map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &state))
	assert.Equal(t, 6.0, state["count"])
}

func TestFold_Trace(t *testing.T) {
	app, err := NewApp(testConfig(t), testOptions(t))
	require.NoError(t, err)

	eventsPath := writeFile(t, "events.ndjson", "{\"type\":\"Counter_Incr\"}\n{\"type\":\"Unknown\"}\n")

	var out bytes.Buffer
	require.NoError(t, Fold(context.Background(), app, FoldOptions{EventsPath: eventsPath, Trace: true}, &out))

	dec := json.NewDecoder(&out)
	var first, second TraceStep
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, TraceStep{Index: 0, Type: "Counter_Incr", Matched: true, Diff: map[string]any{"count": 1.0}}, first)
	assert.Equal(t, TraceStep{Index: 1, Type: "Unknown"}, second)
}

func TestFold_HandlerError(t *testing.T) {
	app, err := NewApp(testConfig(t), testOptions(t))
	require.NoError(t, err)

	eventsPath := writeFile(t, "events.json", `[{"type":"Counter_Incr"},{"type":"Reject"}]`)
	err = Fold(context.Background(), app, FoldOptions{EventsPath: eventsPath}, &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, err.Error(), "event 1 (Reject)")
}

func TestFold_PersistsStream(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, "FOLDTABLE_STORE=file", "FOLDTABLE_STORE_DIR="+dir)
	opts := testOptions(t)
	eventsPath := writeFile(t, "events.ndjson", "{\"type\":\"Counter_Incr\"}\n")

	for i := 0; i < 2; i++ {
		app, err := NewApp(cfg, opts)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, Fold(context.Background(), app, FoldOptions{EventsPath: eventsPath, StreamID: "s1"}, &out))

		var snap domain.Snapshot
		require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
		assert.Equal(t, int64(i+1), snap.Version)
		assert.Equal(t, float64(i+1), snap.State["count"])
	}

	assert.FileExists(t, filepath.Join(dir, "s1.json"))
}

func TestPrintTable(t *testing.T) {
	app, err := NewApp(testConfig(t), testOptions(t))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, PrintTable(app, TableAuto, &out))
	assert.Equal(t, "Counter_Incr\nCounter_Add\nReject\n", out.String())

	out.Reset()
	require.NoError(t, PrintTable(app, TableJSON, &out))
	assert.JSONEq(t, `{"name":"counter","glue":"_","keys":["Counter_Incr","Counter_Add","Reject"]}`, out.String())

	out.Reset()
	require.NoError(t, PrintTable(app, TableMarkdown, &out))
	assert.Contains(t, out.String(), "| 2 | `Counter_Add` | Counter | Add |")

	assert.Error(t, PrintTable(app, "xml", &out))
}

func TestNewApp_GlueOverride(t *testing.T) {
	opts := testOptions(t)
	opts.Glue = "."
	app, err := NewApp(testConfig(t), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Counter.Incr", "Counter.Add", "Reject"}, app.Keys())
}

func TestNewApp_MissingRules(t *testing.T) {
	_, err := NewApp(testConfig(t), Options{})
	assert.Error(t, err)

	_, err = NewApp(testConfig(t), Options{RulesPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Validate(testConfig(t), testOptions(t), &out))
	assert.Contains(t, out.String(), `3 handlers ["Counter_Incr","Counter_Add","Reject"]`)
}

func TestValidate_WarningsAndCollisions(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
handlers:
  undefined:
    - {op: set, path: a, value: 1}
`)
	var out bytes.Buffer
	require.NoError(t, Validate(testConfig(t, "FOLDTABLE_ENV=production"), Options{RulesPath: path}, &out))
	assert.Contains(t, out.String(), "! "+domain.UndefinedWarning)

	path = writeFile(t, "rules.yaml", `
handlers:
  a_b:
    - {op: set, path: a, value: 1}
  a:
    b:
      - {op: set, path: a, value: 2}
`)
	out.Reset()
	err := Validate(testConfig(t), Options{RulesPath: path}, &out)
	assert.ErrorIs(t, err, domain.ErrKeyCollision)
	assert.Contains(t, out.String(), "✗")
}

func TestPrintGraph(t *testing.T) {
	opts := testOptions(t)
	eventsPath := writeFile(t, "events.ndjson", "{\"type\":\"Counter_Incr\"}\n{\"type\":\"Reject\"}\n")

	var out bytes.Buffer
	err := PrintGraph(testConfig(t), opts, eventsPath, FormatAuto, &out)
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, out.String(), "class Counter_Incr applied;")
	assert.Contains(t, out.String(), "class Reject last;")

	out.Reset()
	require.NoError(t, PrintGraph(testConfig(t), opts, "", FormatAuto, &out))
	assert.NotContains(t, out.String(), "classDef")
}

func TestNewHTTPServer(t *testing.T) {
	srv, app, err := NewHTTPServer(testConfig(t), testOptions(t), ServeOptions{Metrics: true})
	require.NoError(t, err)
	defer app.Close()
	assert.Equal(t, ":8080", srv.Addr)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/streams/s1/events", "application/json", strings.NewReader(`{"type":"Counter_Incr"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `foldtable_dispatch_total{outcome="applied",type="Counter_Incr"} 1`)
}

func TestNewMCPServer(t *testing.T) {
	srv, app, err := NewMCPServer(testConfig(t), testOptions(t))
	require.NoError(t, err)
	defer app.Close()
	assert.NotNil(t, srv)
}

func TestOpenStore_Encrypted(t *testing.T) {
	cfg := testConfig(t, "FOLDTABLE_ENCRYPTION_KEY="+strings.Repeat("ab", 32))
	app, err := NewApp(cfg, testOptions(t))
	require.NoError(t, err)

	mgr, err := app.NewManager()
	require.NoError(t, err)

	_, err = mgr.Apply(context.Background(), "s1", domain.Record{Type: "Counter_Incr"})
	require.NoError(t, err)

	snap, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap.State["count"])
}

func TestOpenStore_BadKey(t *testing.T) {
	app, err := NewApp(testConfig(t, "FOLDTABLE_ENCRYPTION_KEY=short"), testOptions(t))
	require.NoError(t, err)

	_, err = app.NewManager()
	assert.Error(t, err)
}
