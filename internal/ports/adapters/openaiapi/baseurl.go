package openaiapi

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	apiVersionPath = "/v1"
)

var defaultAllowedHosts = []string{"api.openai.com"}

// ResolveBaseURL returns the endpoint the client should talk to. A bare host
// gets the /v1 prefix the OpenAI-compatible APIs are served under; the host
// is lowercased and trailing slashes are dropped. Values that do not parse
// are returned trimmed so the client reports the failure.
func ResolveBaseURL(raw string) string {
	u, err := parseBaseURL(raw)
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	return u.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	if u.Path == "" && u.Host != "" {
		u.Path = apiVersionPath
	}
	return u, nil
}

// ValidateBaseURL rejects endpoints that could leak the API key: anything
// other than https on an allowed host, credentials or query strings in the
// URL, and paths that are not a /v1 API root.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
	}
	shown := u.Redacted()
	if !u.IsAbs() || u.Hostname() == "" {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: absolute URL with host is required", shown)
	}
	if u.User != nil {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: userinfo is not allowed", u.Scheme+"://"+u.Host+u.Path)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: query and fragment are not allowed", shown)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: https is required", shown)
	}
	if !strings.HasSuffix(u.Path, apiVersionPath) {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: path must end in %s", shown, apiVersionPath)
	}

	host := u.Hostname()
	if !hostAllowed(host, normalizeAllowedHosts(allowedHosts)) {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: host %q is not in OPENAI_ALLOWED_HOSTS", shown, host)
	}
	return nil
}

// hostAllowed matches exact names and "*.example.com" patterns. A wildcard
// covers subdomains only, not the apex.
func hostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		if suffix, ok := strings.CutPrefix(a, "*"); ok {
			if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
				return true
			}
			continue
		}
		if host == a {
			return true
		}
	}
	return false
}

// normalizeAllowedHosts accepts bare hosts, host:port and full URLs, and
// reduces each to a lowercase hostname or wildcard pattern.
func normalizeAllowedHosts(allowedHosts []string) []string {
	out := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		if v == "" {
			continue
		}
		if wildcard, ok := strings.CutPrefix(v, "*."); ok {
			if name := allowedHostname(wildcard); name != "" {
				out = append(out, "*."+name)
			}
			continue
		}
		if name := allowedHostname(v); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return defaultAllowedHosts
	}
	return out
}

func allowedHostname(v string) string {
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.Parse(v)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
