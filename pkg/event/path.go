package event

import "strings"

// specialChars are the characters a path segment must escape when it is
// joined into a dotted path string: the separator itself, plus the
// characters the pipeline's schema tooling treats as structurally
// significant in a field name.
const specialChars = ".!-\\"

// QuoteSegment escapes a single path segment so it can be joined with "."
// without its own content being mistaken for a path separator. This
// mirrors a hierarchical key-value store addressing its segments by a
// configurable separator: segments may contain any byte, but occurrences
// of the separator (or other structurally significant characters) must be
// escaped, here with a leading backslash.
func QuoteSegment(seg string) string {
	if !strings.ContainsAny(seg, specialChars) {
		return seg
	}
	var b strings.Builder
	b.Grow(len(seg) + 4)
	for _, r := range seg {
		if strings.ContainsRune(specialChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// JoinPath quotes and joins segments into a single dotted path.
func JoinPath(segs ...string) string {
	quoted := make([]string, len(segs))
	for i, s := range segs {
		quoted[i] = QuoteSegment(s)
	}
	return strings.Join(quoted, ".")
}

// SplitPath splits a dotted path into its (unescaped) segments, honoring
// backslash-escaped separators within a segment.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	var cur strings.Builder
	escaped := false
	for _, r := range path {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '.':
			segs = append(segs, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	segs = append(segs, cur.String())
	return segs
}
