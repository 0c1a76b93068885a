package urlutil

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// tournamentBlockedFragments mark wiki links on tournament pages that are never players.
var tournamentBlockedFragments = []string{
	"File:",
	"Category:",
	"Team_",
	"Portal:",
	"index.php",
}

// Normalize lowercases the host, drops the fragment and cleans the path.
// It returns the normalized URL and its hostname.
func Normalize(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Fragment = ""
	u.Host = normalizeHost(u.Host)
	u.Path = normalizePath(u.Path)
	return u.String(), u.Hostname(), nil
}

// ResolveAgainstOrigin turns a site-relative path into an absolute URL on origin.
// Absolute URLs are returned unchanged and protocol-relative ones get https.
func ResolveAgainstOrigin(origin, ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	}
	origin = strings.TrimSuffix(origin, "/")
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return origin + ref
}

// IsPortalPlayerLink accepts in-namespace article links from a region portal page.
// File pages and any namespaced page (anything with a colon) are rejected.
func IsPortalPlayerLink(href, name, gamePath string) bool {
	if name == "" || !strings.HasPrefix(href, gamePath) {
		return false
	}
	if strings.HasPrefix(href, gamePath+"File") {
		return false
	}
	return !strings.Contains(href, ":")
}

// IsTournamentPlayerLink accepts player links found in tournament result tables.
func IsTournamentPlayerLink(href, name, gamePath string) bool {
	if !strings.HasPrefix(href, gamePath) {
		return false
	}
	for _, frag := range tournamentBlockedFragments {
		if strings.Contains(href, frag) {
			return false
		}
	}
	return name != "" && name != "•" && utf8.RuneCountInString(name) > 1
}

// HostOf returns the normalized host of raw, or "" when it cannot be parsed.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	if clean != "/" && strings.HasSuffix(clean, "/") {
		clean = strings.TrimSuffix(clean, "/")
	}
	return clean
}
