package ratelimit

import (
	"net/http"
	"strings"
)

// MatchEndpoint returns the configuration that applies to method and path, or nil.
//
// Patterns are compared segment by segment. A "{name}" segment matches any one
// segment and a trailing "/" matches one or more further segments. When several
// patterns match, the one with the most literal segments wins, and a full-length
// pattern beats a prefix pattern.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks are never limited.
	if path == "/health" && method == http.MethodGet {
		return &EndpointConfig{}
	}

	var best *EndpointConfig
	bestRank := -1
	for i := range configs {
		cfg := &configs[i]
		if cfg.Method != method {
			continue
		}
		if rank, ok := matchPattern(cfg.Path, path); ok && rank > bestRank {
			best, bestRank = cfg, rank
		}
	}
	return best
}

// matchPattern reports whether path fits pattern and ranks the match.
func matchPattern(pattern, path string) (int, bool) {
	prefix := strings.HasSuffix(pattern, "/")
	want := segments(pattern)
	got := segments(path)

	if prefix && len(got) <= len(want) {
		return 0, false
	}
	if !prefix && len(got) != len(want) {
		return 0, false
	}

	literal := 0
	for i, seg := range want {
		if isParam(seg) {
			continue
		}
		if seg != got[i] {
			return 0, false
		}
		literal++
	}

	rank := 2 * literal
	if !prefix {
		rank++
	}
	return rank, true
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isParam(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}
