package oembed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistrySkipsPartialEntries(t *testing.T) {
	t.Parallel()

	providers := []Provider{
		{
			Name: "TestProvider",
			Endpoints: []Endpoint{{
				Schemes: []string{
					"https://*.example.com/watch*",
					"https://example.com/watch?v=*&list=+",
				},
				URL: "https://example.com/oembed",
			}},
		},
		{Name: "MissingEndpoints"},
		{
			Name:      "MissingSchemes",
			Endpoints: []Endpoint{{URL: "https://invalid.example.com/oembed"}},
		},
		{
			Name:      "MissingEndpointURL",
			Endpoints: []Endpoint{{Schemes: []string{"https://missing-url.example.com/*"}}},
		},
		{
			Name:      "EmptySchemes",
			Endpoints: []Endpoint{{Schemes: []string{}, URL: "https://invalid.example.com/oembed"}},
		},
	}

	reg, err := NewRegistry(providers)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	endpoint, ok := reg.Resolve("https://www.example.com/watch?v=123")
	require.True(t, ok)
	require.Equal(t, "https://example.com/oembed", endpoint)

	endpoint, ok = reg.Resolve("https://example.com/watch?v=123&list=+")
	require.True(t, ok)
	require.Equal(t, "https://example.com/oembed", endpoint)

	_, ok = reg.Resolve("https://example.com/v/123")
	require.False(t, ok)
}

func TestRegistryFormatAndSchemeNormalization(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Provider{{
		Name: "FormatAndSchemeVariants",
		Endpoints: []Endpoint{{
			Schemes: []string{"https://example.com/watch/*"},
			URL:     "https://example.com/oembed.{format}",
		}},
	}})
	require.NoError(t, err)

	for _, u := range []string{
		"https://example.com/watch/123",
		"http://example.com/watch/123",
	} {
		endpoint, ok := reg.Resolve(u)
		require.True(t, ok, "expected %s to resolve", u)
		require.Equal(t, "https://example.com/oembed.json", endpoint)
	}
}

func TestRegistryWildcardMatchesBareDomain(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Provider{{
		Name: "WildcardSubdomain",
		Endpoints: []Endpoint{{
			Schemes: []string{"https://*.example.com/watch/*"},
			URL:     "https://example.com/oembed",
		}},
	}})
	require.NoError(t, err)

	for _, u := range []string{
		"https://media.example.com/watch/123",
		"https://example.com/watch/123",
	} {
		endpoint, ok := reg.Resolve(u)
		require.True(t, ok, "expected %s to resolve", u)
		require.Equal(t, "https://example.com/oembed", endpoint)
	}
}

func TestRegistryFirstRegisteredWins(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Provider{
		{
			Name: "GenericProvider",
			Endpoints: []Endpoint{{
				Schemes: []string{"https://example.com/*"},
				URL:     "https://generic.example.com/oembed",
			}},
		},
		{
			Name: "SpecificProvider",
			Endpoints: []Endpoint{{
				Schemes: []string{"https://example.com/video/*"},
				URL:     "https://specific.example.com/oembed",
			}},
		},
	})
	require.NoError(t, err)

	// The later provider's pattern is more specific, but registration order
	// decides.
	endpoint, ok := reg.Resolve("https://example.com/video/123")
	require.True(t, ok)
	require.Equal(t, "https://generic.example.com/oembed", endpoint)
}

func TestRegistryNoMatch(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Provider{{
		Name: "Narrow",
		Endpoints: []Endpoint{{
			Schemes: []string{"https://example.com/video/*"},
			URL:     "https://example.com/oembed",
		}},
	}})
	require.NoError(t, err)

	_, ok := reg.Resolve("https://unknown-site.example.net/page")
	require.False(t, ok)
}

func TestRegistryMatchAnchoredAtStart(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Provider{{
		Name: "Anchored",
		Endpoints: []Endpoint{{
			Schemes: []string{"https://example.com/watch*"},
			URL:     "https://example.com/oembed",
		}},
	}})
	require.NoError(t, err)

	// A URL merely containing the pattern mid-string must not resolve.
	_, ok := reg.Resolve("https://evil.test/?next=https://example.com/watch")
	require.False(t, ok)
}
