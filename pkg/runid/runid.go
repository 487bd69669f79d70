// Package runid derives run identifiers from a target URL and a wall-clock
// timestamp. Identifiers are second-granularity: two runs against the same
// host within the same second share an identifier and therefore a run
// directory. Callers accept the overwrite.
package runid

import (
	"net/url"
	"strings"
	"time"
)

// UnknownSite is the sentinel host used when the target has no parseable host
const UnknownSite = "unknown_site"

// Allocate returns the run identifier for a target URL at the given time,
// in the form {site}_{YYYYMMDD_HHMMSS}. It never fails: malformed or empty
// URLs degrade to the sentinel host.
func Allocate(targetURL string, now time.Time) string {
	return SiteName(targetURL) + "_" + now.Format("20060102_150405")
}

// SiteName normalizes the host part of a target URL into a directory-safe
// name: scheme, port and a leading "www." are stripped and dots become
// underscores. Inputs with no recognizable host map to UnknownSite.
func SiteName(targetURL string) string {
	raw := strings.TrimSpace(targetURL)
	if raw == "" {
		return UnknownSite
	}

	host := ""
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Hostname()
	} else if u != nil && err == nil {
		// Schemeless input like "example.com/path" parses as a path.
		host = u.Path
	} else {
		host = raw
	}

	host = strings.TrimPrefix(host, "www.")
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}

	if host == "" || !hostLike(host) {
		return UnknownSite
	}
	return strings.ReplaceAll(host, ".", "_")
}

// hostLike reports whether s could plausibly be a hostname. Anything with
// whitespace or URL punctuation other than dots and hyphens is rejected.
func hostLike(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
