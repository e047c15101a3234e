package ratelimit

import (
	"net/http"
	"strings"
)

// unlimitedRoutes serve static rulebook data or probes and never consume budget
var unlimitedRoutes = map[string]bool{
	"/health":       true,
	"/metrics":      true,
	"/api/formats":  true,
	"/api/profiles": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// A config path ending in "/" matches every path below it ("/api/ai/" matches
// "/api/ai/copy"); the longest such prefix wins. Methods compare case-insensitively
// and a trailing slash on the request path is ignored.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if unlimitedRoutes[path] && strings.EqualFold(method, http.MethodGet) {
		return &EndpointConfig{Path: path, Method: http.MethodGet}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && strings.EqualFold(config.Method, method) {
			return config
		}
	}

	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if !strings.EqualFold(config.Method, method) || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}
