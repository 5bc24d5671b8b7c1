package navclient

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/daemon"
	"github.com/standardbeagle/lci/internal/types"
)

func TestResolveLauncher_PrefersExplicitOverride(t *testing.T) {
	launcher, err := resolveLauncher("/usr/bin/my-launcher")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/my-launcher", launcher)
}

func TestResolveLauncher_FallsBackToEnvVar(t *testing.T) {
	t.Setenv("NAVIGATOR_LAUNCHER", "/opt/bin/custom-navigator")
	launcher, err := resolveLauncher("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/custom-navigator", launcher)
}

// fakeDaemon serves just enough of the real wire protocol for the
// resolve-and-reuse path to succeed without spawning a process.
func fakeDaemon(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/nav/atlas", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"modules":null}`))
	})
	return httptest.NewServer(mux)
}

func TestNew_ReusesAlreadyHealthyDaemon(t *testing.T) {
	secret := "test-secret"
	srv := fakeDaemon(t, secret)
	defer srv.Close()

	port := srv.Listener.Addr().(*net.TCPAddr).Port

	root := t.TempDir()
	codexHome := t.TempDir()
	metaPath := daemon.MetadataPath(codexHome, root)
	meta := types.DaemonMetadata{
		ProtocolVersion: 1,
		DefaultRoot:     root,
		Port:            port,
		Secret:          secret,
		StartedAt:       time.Now(),
	}
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(metaPath), 0755))
	require.NoError(t, os.WriteFile(metaPath, data, 0600))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := New(ctx, Options{ProjectRoot: root, CodexHome: codexHome})
	require.NoError(t, err)

	atlas, err := c.Atlas(ctx)
	require.NoError(t, err)
	assert.NotNil(t, atlas)
}

func TestNew_FailsFastWhenNoLauncherAndNoRunningDaemon(t *testing.T) {
	root := t.TempDir()
	codexHome := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	_, err := New(ctx, Options{ProjectRoot: root, CodexHome: codexHome, Launcher: filepath.Join(t.TempDir(), "nonexistent-launcher")})
	assert.Error(t, err)
}
