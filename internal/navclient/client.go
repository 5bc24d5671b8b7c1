// Package navclient implements the navigator client and daemon spawner
// (component C10): resolve a running daemon or launch one, then issue
// typed HTTP requests against it. Adapted from the teacher's
// internal/server.Client (a thin http.Client wrapper with one typed
// method per route) with the teacher's Unix-socket dial swapped for a
// loopback TCP dial against the port daemon.json records, plus the
// resolve-or-spawn bootstrap the teacher's Client never needed because
// its server was assumed already running.
package navclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/standardbeagle/lci/internal/daemon"
	"github.com/standardbeagle/lci/internal/debug"
	"github.com/standardbeagle/lci/internal/types"
)

const (
	metadataPollInterval = 200 * time.Millisecond
	metadataPollTimeout  = 20 * time.Second
	healthPingTimeout    = 3 * time.Second
	requestTimeout       = 30 * time.Second
)

// Options configures client resolution (spec section 4.10).
type Options struct {
	ProjectRoot string
	CodexHome   string
	Launcher    string // explicit override; falls back to env then self-resolution
}

// Client issues typed requests against a resolved navigator daemon.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	secret      string
	projectRoot string
}

// New resolves a running daemon for opts.ProjectRoot, spawning one if
// necessary, and returns a ready Client.
func New(ctx context.Context, opts Options) (*Client, error) {
	metaPath := daemon.MetadataPath(opts.CodexHome, opts.ProjectRoot)

	if meta, err := daemon.ReadMetadata(metaPath); err == nil {
		c := newClientFromMetadata(meta, opts.ProjectRoot)
		if c.healthy(ctx) {
			return c, nil
		}
	}

	launcher, err := resolveLauncher(opts.Launcher)
	if err != nil {
		return nil, fmt.Errorf("resolve launcher: %w", err)
	}
	if err := spawnDaemon(launcher, opts); err != nil {
		return nil, fmt.Errorf("spawn daemon: %w", err)
	}

	meta, err := pollMetadata(ctx, metaPath)
	if err != nil {
		return nil, fmt.Errorf("daemon did not report metadata: %w", err)
	}

	c := newClientFromMetadata(meta, opts.ProjectRoot)
	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if !c.healthy(pingCtx) {
		return nil, fmt.Errorf("spawned daemon did not answer health check")
	}
	return c, nil
}

func newClientFromMetadata(meta *types.DaemonMetadata, projectRoot string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     fmt.Sprintf("http://127.0.0.1:%d", meta.Port),
		secret:      meta.Secret,
		projectRoot: projectRoot,
	}
}

// resolveLauncher implements spec section 4.10's resolution order:
// explicit override (env var or caller-supplied), then the current
// executable, then a sibling "codex" binary if the current executable
// can't be resolved at all (e.g. stripped /proc on some platforms).
func resolveLauncher(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("NAVIGATOR_LAUNCHER"); env != "" {
		return env, nil
	}
	self, err := os.Executable()
	if err == nil {
		return self, nil
	}

	sibling := filepath.Join(filepath.Dir(os.Args[0]), "codex")
	if _, statErr := os.Stat(sibling); statErr == nil {
		return sibling, nil
	}
	return "", fmt.Errorf("resolve launcher: current executable unavailable (%v) and no sibling codex binary found", err)
}

// spawnDaemon launches `<launcher> navigator-daemon --project-root ...`
// with stdout discarded and stderr redirected to a rotating log file
// under the codex home (spec section 4.10).
func spawnDaemon(launcher string, opts Options) error {
	args := []string{"navigator-daemon", "--project-root", opts.ProjectRoot}
	if opts.CodexHome != "" {
		args = append(args, "--codex-home", opts.CodexHome)
	}
	cmd := exec.Command(launcher, args...)
	cmd.Stdout = nil

	logPath := filepath.Join(opts.CodexHome, "navigator", "daemon.log")
	if f, err := openRotatingLog(logPath); err == nil {
		cmd.Stderr = f
	}
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		return err
	}
	debug.LogMCP("navclient: spawned daemon pid=%d via %s", cmd.Process.Pid, launcher)
	go cmd.Wait() // reap; we don't manage the daemon's lifecycle from here
	return nil
}

func pollMetadata(ctx context.Context, metaPath string) (*types.DaemonMetadata, error) {
	deadline := time.Now().Add(metadataPollTimeout)
	ticker := time.NewTicker(metadataPollInterval)
	defer ticker.Stop()

	for {
		if meta, err := daemon.ReadMetadata(metaPath); err == nil {
			return meta, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s waiting for daemon metadata", metadataPollTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
