package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/memory"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, body map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), data, 0644))
}

func baseConfig(dir string) map[string]any {
	return map[string]any{
		"logLevel": "debug",
		"logsDir":  filepath.Join(dir, "logs"),
		"storage": map[string]any{
			"type":          "memory",
			"writeInterval": "50ms",
			"memory": map[string]any{
				"outputDir":      filepath.Join(dir, "games"),
				"compressOutput": true,
			},
		},
	}
}

func lines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var res []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m), l)
		res = append(res, m)
	}
	return res
}

func result(t *testing.T, line map[string]any) map[string]any {
	t.Helper()
	r, ok := line["result"].(map[string]any)
	require.True(t, ok, "line %v has no object result", line)
	return r
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage:")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"dance"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "dance"`)
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"version"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), AppName+" "+Version)
}

func TestPlay_MemoryExportThenReplay(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, baseConfig(dir))

	script := strings.Join([]string{
		":NEW:GAME: 42",
		"# a comment",
		":SELECT:CELL: 3",
		":HOVER: 300 300",
		":MOVE: 1",
		"bogus",
		":ROTATE: left",
		":END:GAME:",
	}, "\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"play", "-config", dir}, strings.NewReader(script), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := lines(t, stdout.String())
	require.Len(t, out, 7)

	assert.Equal(t, ":NEW:GAME:", out[0]["command"])
	assert.Equal(t, float64(42), result(t, out[0])["seed"])
	assert.Equal(t, float64(3), out[1]["line"])
	assert.Equal(t, true, result(t, out[1])["selected"])
	assert.Equal(t, ":HOVER:", out[2]["command"])
	assert.Nil(t, out[2]["result"])
	assert.Nil(t, out[2]["error"])
	assert.Contains(t, []any{"Moved", "RejectedIllegalDirection", "RejectedNoTarget"}, result(t, out[3])["outcome"])
	assert.Contains(t, out[4]["error"], "must look like")

	end := result(t, out[6])
	exportPath, _ := end["exportPath"].(string)
	require.NotEmpty(t, exportPath)
	assert.True(t, strings.HasSuffix(exportPath, ".json.gz"))

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, logs)

	viper.Reset()
	stdout.Reset()
	code = run([]string{"replay", "-config", dir, exportPath}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, float64(3), report["events"], "select, move and rotate")
	assert.NotContains(t, report, "mismatches")
}

func TestPlay_HoverShowsInNextSnapshot(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, baseConfig(dir))

	script := ":NEW:GAME: 7\n:HOVER: 300 300\n:SNAPSHOT:\n:HOVER: 10 10\n:SNAPSHOT:\n:END:GAME:\n"
	var stdout, stderr bytes.Buffer
	code := run([]string{"play", "-config", dir}, strings.NewReader(script), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := lines(t, stdout.String())
	require.Len(t, out, 6)

	highlighted := func(line map[string]any) []int {
		var idx []int
		cells, ok := result(t, line)["cells"].([]any)
		require.True(t, ok)
		for i, c := range cells {
			if c.(map[string]any)["highlighted"] == true {
				idx = append(idx, i)
			}
		}
		return idx
	}
	assert.Equal(t, []int{8}, highlighted(out[2]))
	assert.Empty(t, highlighted(out[4]), "off the board clears the highlight")
}

func TestPlay_OpenGameIsClosedAtEOF(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, baseConfig(dir))

	var stdout, stderr bytes.Buffer
	code := run([]string{"play", "-config", dir, "-seed", "9"}, strings.NewReader(":NEW:GAME:\n:MOVE: 6\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := lines(t, stdout.String())
	require.Len(t, out, 3)
	assert.Equal(t, float64(9), result(t, out[0])["seed"])
	assert.Equal(t, "RejectedNoSelection", result(t, out[1])["outcome"])
	assert.Equal(t, ":END:GAME:", out[2]["command"])
	assert.Equal(t, float64(3), out[2]["line"])
	assert.NotEmpty(t, result(t, out[2])["exportPath"])
}

func TestPlay_ScriptFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, baseConfig(dir))
	script := filepath.Join(dir, "game.txt")
	require.NoError(t, os.WriteFile(script, []byte(":SNAPSHOT:\n:NEW:GAME: 1\n:SNAPSHOT:\n"), 0644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"play", "-config", dir, script}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := lines(t, stdout.String())
	require.Len(t, out, 4)
	assert.Equal(t, "no game in progress", out[0]["error"])
	cells, ok := result(t, out[2])["cells"].([]any)
	require.True(t, ok)
	assert.Len(t, cells, 12)
}

func TestPlay_MissingScript(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"play", filepath.Join(t.TempDir(), "nope.txt")}, nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "opening script")
}

func TestPlay_SqliteThenReplayFromDB(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	cfg := baseConfig(dir)
	cfg["storage"] = map[string]any{
		"type":          "sqlite",
		"writeInterval": "50ms",
		"sqlite":        map[string]any{"path": dbPath},
	}
	writeConfig(t, dir, cfg)

	script := ":NEW:GAME: 2024\n:SELECT:CELL: 5\n:ROTATE: r\n:MOVE: 8\n:DESELECT:\n:END:GAME:\n"
	var stdout, stderr bytes.Buffer
	code := run([]string{"play", "-config", dir}, strings.NewReader(script), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	gameID := result(t, lines(t, stdout.String())[0])["id"].(string)

	viper.Reset()
	stdout.Reset()
	code = run([]string{"replay", "-config", dir, "-db", dbPath}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	listed := lines(t, stdout.String())
	require.Len(t, listed, 1)
	assert.Equal(t, gameID, listed[0]["id"])

	viper.Reset()
	stdout.Reset()
	code = run([]string{"replay", "-config", dir, "-db", dbPath, "-game", gameID}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, float64(4), report["events"])
}

func TestReplay_Diverged(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	cfg := baseConfig(dir)
	cfg["storage"].(map[string]any)["memory"] = map[string]any{
		"outputDir":      filepath.Join(dir, "games"),
		"compressOutput": false,
	}
	writeConfig(t, dir, cfg)

	var stdout, stderr bytes.Buffer
	code := run([]string{"play", "-config", dir}, strings.NewReader(":NEW:GAME: 3\n:SELECT:CELL: 0\n:END:GAME:\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	exportPath := result(t, lines(t, stdout.String())[2])["exportPath"].(string)

	j, err := memory.LoadExport(exportPath)
	require.NoError(t, err)
	j.Events[0].Result = "false"
	data, err := json.Marshal(memory.Export{Version: memory.ExportVersion, Journal: j})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(exportPath, data, 0644))

	viper.Reset()
	stdout.Reset()
	stderr.Reset()
	code = run([]string{"replay", "-config", dir, exportPath}, nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "diverged in 1 of 1 events")
	assert.Contains(t, stdout.String(), `"mismatches"`)
}

func TestReplay_BadArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing", []string{"replay"}, "needs an export file"},
		{"both", []string{"replay", "-db", "x.db", "file.json"}, "not both"},
		{"exclusive", []string{"replay", "-db", "x.db", "-postgres"}, "exclusive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(tt.args, nil, &stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestSeedSource(t *testing.T) {
	assert.Equal(t, uint64(5), seedSource(5, 7)())
	assert.Equal(t, uint64(7), seedSource(0, 7)())

	random := seedSource(0, 0)
	assert.NotEqual(t, random(), random())
}
