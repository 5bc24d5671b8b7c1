package indexer

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"

	"github.com/standardbeagle/lci/internal/types"
)

// fastHash is an xxhash digest of content. The build path does not call
// it: scanOne reuses a prior entry on matching mtime+size alone and
// otherwise computes the blake3 digest directly.
func fastHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// computeFingerprint derives the canonical FileFingerprint: mtime, size,
// and a blake3-16 content digest.
func computeFingerprint(modTime int64, size int64, content []byte) types.FileFingerprint {
	sum := blake3.Sum256(content)
	var digest [16]byte
	copy(digest[:], sum[:16])
	return types.FileFingerprint{ModTime: modTime, Size: size, Digest: digest}
}

// SymbolID derives the stable per-symbol identifier: blake3(path ||
// LE(line) || name), truncated to 16 bytes, the low 8 of which become
// the dense in-snapshot SymbolID handle (spec §4.3 step 10).
func SymbolID(path string, line int, name string) (types.SymbolID, string) {
	h := blake3.New(16, nil)
	h.Write([]byte(path))
	var lineBuf [8]byte
	binary.LittleEndian.PutUint64(lineBuf[:], uint64(line))
	h.Write(lineBuf[:])
	h.Write([]byte(name))
	sum := h.Sum(nil)
	id := types.SymbolID(binary.LittleEndian.Uint64(sum[:8]))
	return id, hexString(sum)
}

const hexDigits = "0123456789abcdef"

func hexString(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
