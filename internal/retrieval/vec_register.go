//go:build sqlite_vec && cgo

package retrieval

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Registers the sqlite-vec extension as auto-loadable for every
	// connection mattn/go-sqlite3 opens (mirrors the teacher-adjacent
	// codenerd vector store's init_vec.go).
	vec.Auto()
}
