package client

import "strings"

// DefaultPublicEndpoints are reachable without a token. Requests to them are never
// auth-decorated and never trigger a refresh.
var DefaultPublicEndpoints = []string{
	"/user/register/",
	"/user/login/",
	"/user/token/refresh",
}

// PublicEndpoints is a set of path prefixes exempt from authentication
type PublicEndpoints []string

// Match reports whether path starts with any of the prefixes
func (p PublicEndpoints) Match(path string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
