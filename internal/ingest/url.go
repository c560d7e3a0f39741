// internal/ingest/url.go
package ingest

import (
	"net"
	"net/url"
	"strings"

	apperrors "job-snatcher/internal/common/errors"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Canonicalize validates rawURL as an absolute http(s) URL with a host and returns
// its canonical form: lower-case scheme and host, no fragment, no default port,
// "/" for an empty path. The query string is kept as is.
func Canonicalize(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", apperrors.NewInvalidInputError("empty url")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", apperrors.NewInvalidInputError("unparseable url: " + err.Error())
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", apperrors.NewInvalidInputError("url must be http or https: " + trimmed)
	}
	if u.Hostname() == "" || u.Opaque != "" {
		return "", apperrors.NewInvalidInputError("url has no host: " + trimmed)
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPorts[scheme] {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	u.Scheme = scheme
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u.String(), nil
}

// DetectSource names the job board a canonical URL belongs to.
func DetectSource(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return "generic"
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "linkedin.com"):
		return "linkedin"
	case strings.Contains(host, "indeed.com"):
		return "indeed"
	case strings.Contains(host, "duunitori.fi"):
		return "duunitori"
	default:
		return "generic"
	}
}
