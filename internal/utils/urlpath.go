package utils

import (
	"net/url"
	"strings"
)

// MarkerSuffix returns the part of rawURL from the first occurrence of marker onward.
// Example: https://relay.example/resp/abc123, "/resp/" -> /resp/abc123
func MarkerSuffix(rawURL string, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}
	i := strings.Index(rawURL, marker)
	if i == -1 {
		return "", false
	}
	return rawURL[i:], true
}

// JoinURL appends path to the base URL, keeping any path already on base.
// Example: http://127.0.0.1:8000/relay, /in -> http://127.0.0.1:8000/relay/in
func JoinURL(base string, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// ShortID trims an id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
