package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL returns the form under which two links count as the same
// bookmark. Scheme and host are lowercased, default ports and the fragment
// are dropped and an empty path becomes "/". Path case, trailing slashes and
// query parameter order are kept: "https://a.com/x" and "https://a.com/x/"
// are different bookmarks.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: not absolute", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// IsWebURL reports whether u is an absolute http or https URL with a host.
func IsWebURL(u *url.URL) bool {
	if u == nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
