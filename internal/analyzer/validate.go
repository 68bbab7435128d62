package analyzer

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// hostProfile maps hostnames the way browsers do for URLs: case folding
// and punycode, without the STD3 restriction that rejects underscores.
var hostProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false), idna.Transitional(false))

// Target is a validated URL ready for analysis.
type Target struct {
	// Href is the normalized URL.
	Href string

	// Host is the lowercase ASCII hostname without port.
	Host string
}

// ValidateURL checks that raw is an absolute http or https URL.
//
// The returned Href has a lowercase scheme and host, an ASCII (punycode)
// host and "/" in place of an empty path. Schemes other than http and https
// yield ErrUnsupportedScheme; anything else unusable yields ErrInvalidURL.
func ValidateURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return Target{}, fmt.Errorf("%w: missing scheme", ErrInvalidURL)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Target{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return Target{}, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	ascii, err := asciiHost(hostname)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	u.Scheme = scheme
	host := ascii
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	if u.Path == "" {
		u.Path = "/"
	}

	return Target{Href: u.String(), Host: ascii}, nil
}

func asciiHost(hostname string) (string, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		return strings.ToLower(hostname), nil
	}
	return hostProfile.ToASCII(hostname)
}
