package netx

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// TrustedProxies lists the peers whose forwarded-for header is believed.
// A nil or empty list trusts nobody, so the socket peer is the client.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies accepts plain IPs and CIDRs.
func ParseTrustedProxies(list []string) (*TrustedProxies, error) {
	t := &TrustedProxies{}
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			t.prefixes = append(t.prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		a = a.Unmap()
		t.prefixes = append(t.prefixes, netip.PrefixFrom(a, a.BitLen()))
	}
	return t, nil
}

// Trusts reports whether ip belongs to a trusted proxy.
func (t *TrustedProxies) Trusts(ip string) bool {
	if t == nil || len(t.prefixes) == 0 {
		return false
	}
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func hostOf(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ClientIP resolves the address failed attempts are counted against.
// forwardedFor is only read when the socket peer is trusted; it is then
// walked right to left and the first untrusted hop wins. Malformed hops
// fall back to the peer.
func (t *TrustedProxies) ClientIP(remoteAddr, forwardedFor string) string {
	peer := hostOf(remoteAddr)
	if peer == "" {
		return "unknown"
	}
	if forwardedFor == "" || !t.Trusts(peer) {
		return peer
	}

	hops := strings.Split(forwardedFor, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		a, err := netip.ParseAddr(hop)
		if err != nil {
			return peer
		}
		if !t.Trusts(hop) {
			return a.Unmap().String()
		}
	}
	return strings.TrimSpace(hops[0])
}
