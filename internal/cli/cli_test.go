package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/harnessutil/internal/model"
)

// executeCommand runs the root command with args and returns stdout,
// stderr and the error cobra reported.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// requireExitCode asserts that err is a CLIError with the given code.
func requireExitCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "expected CLIError, got %v", err)
	assert.Equal(t, code, cliErr.Code)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildRootCommand(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("BUILDTOP", "/opt/build")
		out, _, err := executeCommand(t, "buildroot", "/src")
		require.NoError(t, err)
		assert.Equal(t, "/opt/build\n", out)
	})

	t.Run("default suffix", func(t *testing.T) {
		t.Setenv("BUILDTOP", "")
		_ = os.Unsetenv("BUILDTOP")
		out, _, err := executeCommand(t, "buildroot", "/src")
		require.NoError(t, err)
		assert.Equal(t, "/src/build/debug\n", out)
	})

	t.Run("configured variable", func(t *testing.T) {
		t.Setenv("SANDBOX_ROOT", "/sandbox")
		cfgPath := writeFile(t, "harness.toml", "[buildroot]\nenv = \"SANDBOX_ROOT\"\n")
		out, _, err := executeCommand(t, "--config", cfgPath, "--json", "buildroot")
		require.NoError(t, err)
		assert.JSONEq(t, `{"buildroot": "/sandbox"}`, out)
	})
}

func TestConfigLoadFailure(t *testing.T) {
	cfgPath := writeFile(t, "bad.yaml", "retry:\n  tries: -3\n")
	_, _, err := executeCommand(t, "--config", cfgPath, "config", "show")
	requireExitCode(t, err, model.ExitConfigError)
}

func TestConfigShow(t *testing.T) {
	out, _, err := executeCommand(t, "--json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"tries": 5`)
	assert.Contains(t, out, `"delay": "3s"`)
	assert.Contains(t, out, `"reserved_ports_file": "/proc/sys/net/ipv4/ip_local_reserved_ports"`)
}

func TestDumpCommand(t *testing.T) {
	t.Run("toml to yaml", func(t *testing.T) {
		path := writeFile(t, "uve.toml", `
name = "vizd"
ports = [8081, 8086]

[collector]
enabled = true
`)
		out, _, err := executeCommand(t, "dump", path)
		require.NoError(t, err)
		assert.Contains(t, out, "name: vizd")
		assert.Contains(t, out, "- 8081")
		assert.Contains(t, out, "enabled: true")
	})

	t.Run("jsonc to json", func(t *testing.T) {
		path := writeFile(t, "doc.jsonc", `{
  // comment
  "a": {"b": [1, 2]},
}`)
		out, _, err := executeCommand(t, "dump", "--format", "json", path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a": {"b": [1, 2]}}`, out)
	})

	t.Run("bad format", func(t *testing.T) {
		path := writeFile(t, "doc.yaml", "a: 1\n")
		_, _, err := executeCommand(t, "dump", "--format", "xml", path)
		requireExitCode(t, err, model.ExitInvalidArgument)
	})
}

func TestRetryCommand(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		_, _, err := executeCommand(t, "retry", "--tries=2", "--delay=1ms", "--", "true")
		require.NoError(t, err)
	})

	t.Run("exhausted", func(t *testing.T) {
		_, _, err := executeCommand(t, "retry", "--tries=2", "--delay=1ms", "--", "false")
		requireExitCode(t, err, model.ExitRetryExhausted)
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("invalid policy", func(t *testing.T) {
		_, _, err := executeCommand(t, "retry", "--tries=-1", "--", "true")
		requireExitCode(t, err, model.ExitInvalidArgument)

		_, _, err = executeCommand(t, "retry", "--delay=0s", "--", "true")
		requireExitCode(t, err, model.ExitInvalidArgument)
	})

	t.Run("command output passes through", func(t *testing.T) {
		out, _, err := executeCommand(t, "retry", "--delay=1ms", "--", "echo", "-n", "ready")
		require.NoError(t, err)
		assert.Equal(t, "ready", out)
	})
}

func TestFetchCommand(t *testing.T) {
	out, _, err := executeCommand(t, "fetch", "--client", "echo", "http://127.0.0.1:8081/health")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8081/health\n", out)

	_, _, err = executeCommand(t, "fetch", "--client", "false", "http://127.0.0.1:8081/health")
	requireExitCode(t, err, model.ExitFetchFailed)
}

func TestPortFreeCommand(t *testing.T) {
	t.Run("naive", func(t *testing.T) {
		out, _, err := executeCommand(t, "port", "free", "--naive")
		require.NoError(t, err)
		p, err := strconv.Atoi(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 1)
		assert.LessOrEqual(t, p, 65535)
	})

	t.Run("reserved", func(t *testing.T) {
		dir := t.TempDir()
		reserved := filepath.Join(dir, "ip_local_reserved_ports")
		require.NoError(t, os.WriteFile(reserved, []byte("8080\n"), 0o644))

		cfgPath := writeFile(t, "harness.yaml", "port:\n"+
			"  reserved_ports_file: "+reserved+"\n"+
			"  lock_dir: "+dir+"\n"+
			"  commit_prefix: [sh, -c]\n")

		out, _, err := executeCommand(t, "--config", cfgPath, "port", "free")
		require.NoError(t, err)
		p := strings.TrimSpace(out)

		data, err := os.ReadFile(reserved)
		require.NoError(t, err)
		assert.Equal(t, "8080,"+p, string(data))

		out, _, err = executeCommand(t, "--config", cfgPath, "port", "list")
		require.NoError(t, err)
		assert.Equal(t, "8080\n"+p+"\n", out)

		_, _, err = executeCommand(t, "--config", cfgPath, "port", "release", p)
		require.NoError(t, err)

		_, _, err = executeCommand(t, "--config", cfgPath, "port", "release", p)
		requireExitCode(t, err, model.ExitInvalidArgument)
	})
}

func TestPortCheckCommand(t *testing.T) {
	_, _, err := executeCommand(t, "port", "check", "0")
	requireExitCode(t, err, model.ExitInvalidArgument)

	_, _, err = executeCommand(t, "port", "check", "--protocol", "sctp", "8080")
	requireExitCode(t, err, model.ExitInvalidArgument)

	out, _, err := executeCommand(t, "--json", "port", "check", "65535")
	require.NoError(t, err)
	assert.Contains(t, out, `"port": 65535`)
}

// TestPrintError verifies both error output formats.
func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	jsonOutput = false
	printError(&buf, "cannot allocate a free port", errors.New("permission denied"))
	assert.Equal(t, "Error: cannot allocate a free port: permission denied\n", buf.String())

	buf.Reset()
	jsonOutput = true
	defer func() { jsonOutput = false }()
	printError(&buf, "no output", nil)
	assert.JSONEq(t, `{"error": {"message": "no output"}}`, buf.String())
}
