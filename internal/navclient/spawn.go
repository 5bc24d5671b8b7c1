package navclient

import (
	"os"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"
)

// openRotatingLog opens a size-rotated sink for the spawned daemon's
// stderr (spec section 4.10: "redirected to a rotating log file").
func openRotatingLog(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}, nil
}

// detachedProcAttr starts the daemon in its own session so it outlives
// the spawning client process.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
