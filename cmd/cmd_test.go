package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/rowtree/pkg/config"
	"github.com/bisegni/rowtree/pkg/parser"
	"github.com/bisegni/rowtree/pkg/planner"
)

const testShape = `
aggregate Customer @table(customer) {
    id: int @id
    name: string
    tags: set string @table(tag)
}`

func useShape(t *testing.T) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "customer.shape")
	require.NoError(t, os.WriteFile(file, []byte(testShape), 0o644))

	ShapeFile, AggregateName = file, ""
	settings = config.Default()
	t.Cleanup(func() { ShapeFile = "" })
}

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	useShape(t)
	x, err := newExtractor()
	require.NoError(t, err)

	var out bytes.Buffer
	s, err := newSession(context.Background(), x, &out)
	require.NoError(t, err)
	return s, &out
}

func TestSessionExtract(t *testing.T) {
	s, out := newTestSession(t)

	rows := `[{"id":1,"name":"ada","tags":"x"},{"id":1,"name":"ada","tags":"y"},{"id":2,"name":"bob","tags":null}]`
	require.NoError(t, s.execute("load shop "+rows))
	assert.Equal(t, "Loaded 3 row(s) as 'shop'\n", out.String())

	out.Reset()
	require.NoError(t, s.execute("extract"))
	assert.Equal(t,
		`{"id":1,"name":"ada","tags":["x","y"]}`+"\n"+
			`{"id":2,"name":"bob","tags":[]}`+"\n"+
			"(2 aggregate(s))\n",
		out.String())

	// buffered tables extract again
	out.Reset()
	require.NoError(t, s.execute("extract shop"))
	assert.Contains(t, out.String(), "(2 aggregate(s))")
}

func TestSessionCommands(t *testing.T) {
	s, out := newTestSession(t)

	assert.Error(t, s.execute("extract"), "nothing loaded")
	assert.Error(t, s.execute("use nope"))
	assert.Error(t, s.execute("frobnicate"))
	assert.Error(t, s.execute("path nope"))

	require.NoError(t, s.execute(`load a [{"id":1}]`))
	require.NoError(t, s.execute(`load b [{"id":2}]`))
	require.NoError(t, s.execute("use a"))

	out.Reset()
	require.NoError(t, s.execute("tables"))
	assert.Equal(t, "* a\n  b\n", out.String())

	out.Reset()
	require.NoError(t, s.execute("readers"))
	assert.Contains(t, out.String(), "Reader for <root>")
	assert.Contains(t, out.String(), "Collection reader for tags")

	out.Reset()
	require.NoError(t, s.execute("path tags"))
	assert.Equal(t, "tags: set\n  value column: tags (string)\n  table: tag\n", out.String())

	out.Reset()
	require.NoError(t, s.execute("tree"))
	assert.Contains(t, out.String(), "Table(customer")
	assert.Contains(t, out.String(), "Table(tag")
}

// recordingWriter keeps every write separately.
type recordingWriter struct {
	writes []string
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

func TestExtractSingleSourceStreams(t *testing.T) {
	useShape(t)
	out := &recordingWriter{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())

	rows := `[{"id":1,"name":"ada","tags":"x"},{"id":2,"name":"bob","tags":null}]`
	require.NoError(t, runExtract(cmd, []string{rows}))
	assert.Equal(t, []string{
		`{"id":1,"name":"ada","tags":["x"]}` + "\n",
		`{"id":2,"name":"bob","tags":[]}` + "\n",
	}, out.writes, "each aggregate reaches the output as it completes")
}

func TestExtractSeveralSourcesKeepOrder(t *testing.T) {
	useShape(t)
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, runExtract(cmd, []string{`[{"id":1,"name":"a"}]`, `[{"id":2,"name":"b"}]`}))
	assert.Equal(t,
		`{"id":1,"name":"a","tags":[]}`+"\n"+`{"id":2,"name":"b","tags":[]}`+"\n",
		out.String())
}

func TestDefaultQuery(t *testing.T) {
	useShape(t)
	agg, err := loadAggregate()
	require.NoError(t, err)
	b, err := planner.CreatePlan(agg, settings.Mapping())
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name, tags FROM customer ORDER BY id", defaultQuery(b))
}

func TestLoadAggregateWithoutShape(t *testing.T) {
	ShapeFile = ""
	_, err := loadAggregate()
	assert.Error(t, err)
}

func TestMissingColumns(t *testing.T) {
	records := []parser.Record{
		{"id": json.Number("1"), "name": "ada"},
		{"id": json.Number("2"), "orders_key": nil},
	}
	got := missingColumns([]string{"id", "name", "tags", "orders_key", "attrs_key"}, records)
	assert.Equal(t, []string{"attrs_key", "tags"}, got)
}

func TestGatherStats(t *testing.T) {
	records := []parser.Record{
		{"id": json.Number("1"), "name": "ada", "vip": true},
		{"id": json.Number("2"), "name": nil},
	}
	stats := gatherStats(records)
	assert.Equal(t, 2, stats.records)
	assert.Equal(t, map[string]int{"number": 2}, stats.fields["id"])
	assert.Equal(t, map[string]int{"string": 1, "null": 1}, stats.fields["name"])
	assert.Equal(t, map[string]int{"boolean": 1}, stats.fields["vip"])
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "<stdin>", displayName("-"))
	assert.Equal(t, "<inline>", displayName(`[{"id":1}]`))
	assert.Equal(t, "rows.jsonl", displayName("rows.jsonl"))
}
