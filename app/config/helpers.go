package config

import (
	"cmp"
	"net/url"
	"strings"
)

// Label returns a human readable identifier for logs and error strings
func (s Source) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if u, err := url.Parse(s.URL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return s.URL
}

// DisplayName picks the stored source name: configured name, then the feed title, then "Unknown"
func (s Source) DisplayName(feedTitle string) string {
	return cmp.Or(s.Name, strings.TrimSpace(feedTitle), "Unknown")
}
