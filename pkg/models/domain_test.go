package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "example.com", "example.com"},
		{"uppercase", "EXAMPLE.COM", "example.com"},
		{"www stripped", "www.example.se", "example.se"},
		{"www uppercase", "WWW.Example.SE", "example.se"},
		{"trailing dot", "example.com.", "example.com"},
		{"whitespace", "  example.com  ", "example.com"},
		{"idn to punycode", "bücher.example", "xn--bcher-kva.example"},
		{"other subdomain kept", "shop.example.com", "shop.example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeDomain(tc.input))
		})
	}
}

func TestHostOf(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"full url", "https://example.se/", "example.se"},
		{"url with path", "http://www.example.se/start?x=1", "example.se"},
		{"url with port", "https://example.se:8443/", "example.se"},
		{"bare host", "example.se", "example.se"},
		{"bare host with path", "example.se/landing", "example.se"},
		{"bare host with port", "example.se:443", "example.se"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, HostOf(tc.input))
		})
	}
}
