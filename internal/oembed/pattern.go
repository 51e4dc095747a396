package oembed

import (
	"regexp"
	"strings"
)

// compileScheme converts one provider URL pattern into a regex fragment.
// Catalogue patterns use `*` as a wildcard and may carry a `*.` subdomain
// marker. The fragment accepts:
//   - the wildcarded host and the bare host (`*.youtube.com` also matches
//     plain `youtube.com`),
//   - both http and https regardless of which scheme the pattern declares.
//
// Patterns not ending in `*` are anchored so trailing path segments do not
// match.
func compileScheme(scheme string) string {
	variants := []string{scheme}
	if strings.Contains(scheme, "://*.") {
		variants = append(variants, strings.Replace(scheme, "://*.", "://", 1))
	}

	for _, v := range variants {
		switch {
		case strings.HasPrefix(v, "https://"):
			variants = append(variants, "http://"+strings.TrimPrefix(v, "https://"))
		case strings.HasPrefix(v, "http://"):
			variants = append(variants, "https://"+strings.TrimPrefix(v, "http://"))
		}
	}
	variants = dedupe(variants)

	patterns := make([]string, 0, len(variants))
	for _, v := range variants {
		p := strings.ReplaceAll(regexp.QuoteMeta(v), `\*`, `.*`)
		if !strings.HasSuffix(v, "*") {
			p += "$"
		}
		patterns = append(patterns, p)
	}
	return "(?:" + strings.Join(patterns, "|") + ")"
}

// dedupe removes duplicate variants while preserving first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
