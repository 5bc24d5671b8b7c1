package searchplan

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/lci/internal/types"
)

// PopulateReferences builds a definition/usage list for each hit, capped
// by refsLimit (default 12 per spec §4.8 step 5). Definitions are other
// symbols sharing the same leaf name; usages are files whose token index
// contains the name but that are not the symbol's own declaration site.
func PopulateReferences(snap *types.Snapshot, hits []types.Hit, refsLimit int) map[string]types.ReferenceSet {
	if refsLimit <= 0 {
		refsLimit = 12
	}
	out := make(map[string]types.ReferenceSet, len(hits))

	for _, h := range hits {
		key := fmt.Sprintf("%s:%d", h.Path, h.Line)
		var defs []types.Hit
		for _, sym := range snap.Symbols {
			if sym.Name() != h.Name {
				continue
			}
			if len(defs) >= refsLimit {
				break
			}
			defs = append(defs, types.Hit{Path: sym.Path, Line: sym.Range.StartLine, Name: sym.Name(), Kind: sym.Kind, SymbolPath: sym.SymbolPath})
		}

		var usages []types.Hit
		token := strings.ToLower(h.Name)
		for path := range snap.TokenToFiles[token] {
			if path == h.Path {
				continue
			}
			if len(usages) >= refsLimit {
				break
			}
			usages = append(usages, types.Hit{Path: path, Name: h.Name})
		}

		out[key] = types.ReferenceSet{Definitions: defs, Usages: usages}
	}
	return out
}
