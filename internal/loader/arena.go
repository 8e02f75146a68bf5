package loader

// arena duplicates every string pulled out of a parsed OELF: module names,
// export names, dependency names. The string([]byte) conversion in dup
// already makes its own immutable copy, so the returned string never
// actually points back into chunks — Go's own allocator, not this type,
// is what keeps it alive once the OELF's parse buffer is discarded. chunks
// is kept anyway so a future non-copying implementation (e.g. unsafe
// string-from-bytes) has somewhere to retain its backing storage.
type arena struct {
	chunks [][]byte
}

// dup copies s into a private buffer and returns an independent string
// built from it.
func (a *arena) dup(s string) string {
	buf := make([]byte, len(s))
	copy(buf, s)
	a.chunks = append(a.chunks, buf)
	return string(buf)
}

// dupAll duplicates every element of ss, in order.
func (a *arena) dupAll(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = a.dup(s)
	}
	return out
}
