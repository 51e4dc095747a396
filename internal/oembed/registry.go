package oembed

import (
	"fmt"
	"regexp"
	"strings"
)

// Provider is one entry in the provider catalogue.
type Provider struct {
	Name      string     `json:"provider_name"`
	URL       string     `json:"provider_url"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Endpoint is one structured-metadata endpoint with its URL patterns.
type Endpoint struct {
	URL     string   `json:"url"`
	Schemes []string `json:"schemes"`
}

type compiledEndpoint struct {
	matcher  *regexp.Regexp
	endpoint string
}

// Registry resolves content URLs to provider endpoint URLs. Matchers are
// tried in registration order; on overlapping patterns the first registered
// endpoint wins. That ordering is part of the contract, so the registry is
// a slice, not a map.
type Registry struct {
	endpoints []compiledEndpoint
}

// NewRegistry compiles the provider catalogue. Endpoints without patterns or
// without a URL are skipped; real catalogues contain partial entries. Any
// `{format}` placeholder in an endpoint URL resolves to "json".
func NewRegistry(providers []Provider) (*Registry, error) {
	r := &Registry{}
	for _, p := range providers {
		for _, ep := range p.Endpoints {
			if len(ep.Schemes) == 0 || ep.URL == "" {
				continue
			}
			fragments := make([]string, 0, len(ep.Schemes))
			for _, s := range ep.Schemes {
				fragments = append(fragments, compileScheme(s))
			}
			matcher, err := regexp.Compile(`(?i)^(?:` + strings.Join(fragments, "|") + `)`)
			if err != nil {
				return nil, fmt.Errorf("compile patterns for provider %q: %w", p.Name, err)
			}
			r.endpoints = append(r.endpoints, compiledEndpoint{
				matcher:  matcher,
				endpoint: strings.ReplaceAll(ep.URL, "{format}", "json"),
			})
		}
	}
	return r, nil
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	return len(r.endpoints)
}

// Resolve returns the endpoint URL of the first matcher accepting url, or
// false when no provider claims it.
func (r *Registry) Resolve(url string) (string, bool) {
	for _, ep := range r.endpoints {
		if ep.matcher.MatchString(url) {
			return ep.endpoint, true
		}
	}
	return "", false
}
