package cli_test

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planfiles/fingerd/internal/cli"
)

// execute runs the fingerd command tree with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestServeRequiresPlanDir(t *testing.T) {
	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan_dir")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerd.yaml")

	out, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "listen:")
	assert.Contains(t, string(data), "port: 7979")

	t.Run("refuses overwrite", func(t *testing.T) {
		_, err := execute(t, "config", "init", "--path", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("force overwrites", func(t *testing.T) {
		_, err := execute(t, "config", "init", "--path", path, "--force")
		assert.NoError(t, err)
	})
}

func TestConfigShow(t *testing.T) {
	t.Setenv("FINGERD_PLAN_DIR", "/srv/plans")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "plan_dir: /srv/plans")
	assert.Contains(t, out, "ttl: 5m0s")
}

func TestQueryCommand(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("Available projects:\n2025/test.project\n"))
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	out, err := execute(t, "query", "127.0.0.1", "-p", fmt.Sprint(port))
	require.NoError(t, err)
	assert.Contains(t, out, "2025/test.project")
	// Client output is trimmed and re-terminated.
	assert.Equal(t, "Available projects:\n2025/test.project\n", out)
}

func TestQueryTransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = execute(t, "query", "127.0.0.1", "-p", fmt.Sprint(port))
	assert.Error(t, err)
}
