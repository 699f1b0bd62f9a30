package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig points both stores into a temp dir so commands never
// touch the working directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graft.yaml")
	body := fmt.Sprintf("graph_db: %s\nledger_db: %s\n",
		filepath.Join(dir, "graph.db"), filepath.Join(dir, "ledger.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// execute runs the CLI with the given args and captures stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses one --format json response line.
func decodeResponse(t *testing.T, out string) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "graft", cmd.Use)
	assert.Contains(t, cmd.Long, "knowledge graph")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "call", "trace", "history", "context", "vocab", "run"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := execute(t, "--format", "xml", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInitCreatesStores(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "--config", cfg, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")

	dir := filepath.Dir(cfg)
	assert.FileExists(t, filepath.Join(dir, "graph.db"))
	assert.FileExists(t, filepath.Join(dir, "ledger.db"))
}

func TestCallCreateThenGet(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "--format", "json",
		"call", "create", "--payload", `{"type":"person","attrs":{"name":"Ada"}}`)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	envelope, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	result, ok := envelope["result"].(map[string]any)
	require.True(t, ok)
	id, _ := result["id"].(string)
	require.NotEmpty(t, id)

	out, err = execute(t, "--config", cfg, "--format", "json",
		"call", "get", "--payload", fmt.Sprintf(`{"target":%q}`, id))
	require.NoError(t, err)

	resp = decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
}

func TestCallInvalidPayloadJSON(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, "--config", cfg, "call", "create", "--payload", "{not json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCallFailureExitCode(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "--config", cfg, "--format", "json",
		"call", "get", "--payload", `{"target":"missing"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Kind)
}

func TestTraceCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "--format", "json",
		"call", "create", "--payload", `{"type":"person"}`)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	id := resp.Data.(map[string]any)["result"].(map[string]any)["id"].(string)

	out, err = execute(t, "--config", cfg, "--format", "json", "trace", id, "--depth", "2")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
}

func TestHistoryCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "--format", "json",
		"call", "create", "--payload", `{"type":"person"}`)
	require.NoError(t, err)
	id := decodeResponse(t, out).Data.(map[string]any)["result"].(map[string]any)["id"].(string)

	out, err = execute(t, "--config", cfg, "--format", "json",
		"call", "append", "--payload", fmt.Sprintf(`{"subject":%q,"fact_type":"note","payload":"hi"}`, id))
	require.NoError(t, err)
	factID := decodeResponse(t, out).Data.(map[string]any)["result"].(map[string]any)["id"].(string)

	out, err = execute(t, "--config", cfg, "--format", "json", "history", factID)
	require.NoError(t, err)
	assert.Equal(t, "ok", decodeResponse(t, out).Status)
}

func TestContextCommandFreshProcess(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "--config", cfg, "--format", "json", "context", "quinn")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Empty(t, data["active"])
}

func TestVocabCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.cue")
	body := `
vocabulary: {
	entity_types: {
		person: {doc: "A human being."}
	}
	relation_kinds: {
		knows: {}
	}
	fact_types: {
		note: {}
	}
}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	out, err := execute(t, "--format", "json", "vocab", path)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, []any{"person"}, data["entity_types"])
	assert.Equal(t, []any{"knows"}, data["relation_kinds"])
}

func TestVocabCommandBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte("vocabulary: {entity_types: 3}"), 0o644))

	out, err := execute(t, "--format", "json", "vocab", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", decodeResponse(t, out).Status)
}

func TestRunScenarios(t *testing.T) {
	cfg := writeConfig(t)
	scenario := filepath.Join(t.TempDir(), "basic.yaml")
	body := `
name: basic
actor: quinn
steps:
  - op: create
    payload:
      type: person
  - op: enter_scope
    payload:
      scope: work
  - op: context
    expect:
      result:
        primary: work
`
	require.NoError(t, os.WriteFile(scenario, []byte(body), 0o644))

	out, err := execute(t, "--config", cfg, "--format", "json", "run", scenario)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	reports := resp.Data.([]any)
	require.Len(t, reports, 1)
	assert.Equal(t, true, reports[0].(map[string]any)["passed"])
}

func TestRunScenarioFailureExitCode(t *testing.T) {
	cfg := writeConfig(t)
	scenario := filepath.Join(t.TempDir(), "fails.yaml")
	body := `
name: fails
steps:
  - op: get
    payload:
      target: missing
`
	require.NoError(t, os.WriteFile(scenario, []byte(body), 0o644))

	_, err := execute(t, "--config", cfg, "run", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunMissingScenarioFile(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, "--config", cfg, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
