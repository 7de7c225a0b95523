package studio

// CAPLookup resolves CAP identifiers. Unknown ids report false; callers skip
// them silently.
type CAPLookup interface {
	LookupCAP(id string) (CAP, bool)
}

// CAPIndex is a read-only, in-memory CAPLookup. It is safe for concurrent
// reads once built.
type CAPIndex map[string]CAP

// NewCAPIndex indexes caps by id. A later CAP with a duplicate id wins.
func NewCAPIndex(caps []CAP) CAPIndex {
	idx := make(CAPIndex, len(caps))
	for _, c := range caps {
		idx[c.ID] = c
	}
	return idx
}

// LookupCAP implements CAPLookup.
func (idx CAPIndex) LookupCAP(id string) (CAP, bool) {
	c, ok := idx[id]
	return c, ok
}

// ResolveCAPs returns the CAPs of ids that resolve, in order, keeping
// duplicates. A nil lookup resolves nothing.
func ResolveCAPs(lookup CAPLookup, ids []string) []CAP {
	if lookup == nil {
		return nil
	}
	var out []CAP
	for _, id := range ids {
		if c, ok := lookup.LookupCAP(id); ok {
			out = append(out, c)
		}
	}
	return out
}
