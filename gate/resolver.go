package gate

import (
	"context"
	"fmt"
	"net"
)

// ResolverProber probes the online service by resolving one of its hosts.
// A successful lookup means the service is reachable, not that a profile
// is signed in to it: it is a reachability heuristic and refuses on any
// host with working DNS to the service. Use it only where the service is
// expected to be blocked, as it is for a console prepared for this layer.
type ResolverProber struct {
	Host string

	// Resolver nil means net.DefaultResolver.
	Resolver *net.Resolver
}

func (p ResolverProber) ServiceLookup(ctx context.Context) error {
	r := p.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	if _, err := r.LookupHost(ctx, p.Host); err != nil {
		return fmt.Errorf("gate: lookup %s: %w", p.Host, err)
	}
	return nil
}
