package daemon

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lci/internal/types"
)

// hashRoot derives the project hash used to namespace a workspace's
// on-disk state under <codex_home>/navigator/<project_hash>/ (spec
// section 6). Grounded in the teacher's GetSocketPathForRoot, which
// hashes the absolute root path to a deterministic, per-project name;
// this hashes with xxhash (the library behind the indexer's fastHash)
// instead of the teacher's hand-rolled multiplier hash.
func hashRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := xxhash.Sum64String(abs)
	return fmt.Sprintf("%016x", sum)
}

// generateSecret produces the per-daemon bearer secret embedded in
// daemon.json and required on every authenticated request.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate daemon secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// writeMetadata writes daemon.json atomically (write to temp + rename,
// spec section 4.9/6).
func writeMetadata(path string, meta types.DaemonMetadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write daemon metadata temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename daemon metadata temp file: %w", err)
	}
	return nil
}

// ReadMetadata reads and parses a daemon.json file. Used by the client
// spawner (C10) to discover a running daemon.
func ReadMetadata(path string) (*types.DaemonMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta types.DaemonMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse daemon metadata: %w", err)
	}
	return &meta, nil
}

// MetadataPath returns the daemon.json path for a given codex home and
// project root.
func MetadataPath(codexHome, root string) string {
	return filepath.Join(codexHome, "navigator", hashRoot(root), "daemon.json")
}

func metadataAge(meta *types.DaemonMetadata) time.Duration {
	return time.Since(meta.StartedAt)
}
