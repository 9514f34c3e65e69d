// internal/routing/match.go
//
// Path helpers for the edge middleware.
//
// Notes
// -----
// • Prefix matching is per whole segment: `/api` excludes `/api` and
//   `/api/x`, never `/apiary`.
// • Any segment containing a dot is treated as a static file.

package routing

import "strings"

// Excluded reports whether path bypasses locale handling entirely.
func Excluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	for _, seg := range segments(path) {
		if strings.Contains(seg, ".") {
			return true
		}
	}
	return false
}

// segments splits path on "/" and drops empty parts, so `//fr//x/` yields
// ["fr", "x"].
func segments(path string) []string {
	raw := strings.Split(path, "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// joinPath rebuilds an absolute path from segments; no segments yields "/".
func joinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}

// normalize trims a trailing slash from anything but the root.
func normalize(path string) string {
	if p := strings.TrimRight(path, "/"); p != "" {
		return p
	}
	return "/"
}
