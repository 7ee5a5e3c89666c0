package models

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider is returned for any provider identifier other than
// the known variants.
var ErrUnsupportedProvider = errors.New("unsupported model provider")

// Provider identifies an upstream completion service reachable through the gateway.
type Provider int

const (
	ProviderOpenAI Provider = iota + 1
	ProviderWorkersAI
)

// Providers lists every known provider in display order.
var Providers = []Provider{ProviderOpenAI, ProviderWorkersAI}

// ParseProvider maps a wire identifier ("openai", "workersai") to a Provider.
func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}

// String returns the wire identifier.
func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderWorkersAI:
		return "workersai"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}
