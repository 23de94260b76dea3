package orchestrator

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for deduplication: lowercased scheme and
// host, fragment dropped, query parameters sorted, and the trailing slash
// removed everywhere but the root path.
func NormalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("unparseable url %q: %w", raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	if parsed.RawQuery != "" {
		if values, err := url.ParseQuery(parsed.RawQuery); err == nil {
			parsed.RawQuery = values.Encode() // Encode emits keys sorted
		}
	}

	switch {
	case parsed.Path == "":
		parsed.Path = "/"
	case parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/"):
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	return parsed.String(), nil
}

// dedupSet tracks normalized URLs already seen within one orchestration run.
// Decision logic runs sequentially, so the set needs no locking.
type dedupSet struct {
	seen map[string]struct{}
}

func newDedupSet() *dedupSet {
	return &dedupSet{seen: make(map[string]struct{})}
}

// add normalizes the URL and records it. It returns the normalized form and
// whether the URL was fresh.
func (s *dedupSet) add(raw string) (string, bool, error) {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return "", false, err
	}
	if _, dup := s.seen[normalized]; dup {
		return normalized, false, nil
	}
	s.seen[normalized] = struct{}{}
	return normalized, true, nil
}
