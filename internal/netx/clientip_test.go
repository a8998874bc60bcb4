package netx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.1", " 192.168.0.0/16 ", "", "::1"})
	require.NoError(t, err)

	assert.True(t, tp.Trusts("10.0.0.1"))
	assert.False(t, tp.Trusts("10.0.0.2"))
	assert.True(t, tp.Trusts("192.168.44.3"))
	assert.True(t, tp.Trusts("::1"))
	assert.True(t, tp.Trusts("::ffff:10.0.0.1"))
	assert.False(t, tp.Trusts("not-an-ip"))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestTrustedProxies_NilTrustsNobody(t *testing.T) {
	var tp *TrustedProxies
	assert.False(t, tp.Trusts("127.0.0.1"))
	assert.Equal(t, "10.0.0.5", tp.ClientIP("10.0.0.5:4242", "203.0.113.9"))
}

func TestClientIP(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.1", "10.0.1.0/24"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		fwd    string
		want   string
	}{
		{"untrusted peer ignores header", "198.51.100.20:5555", "203.0.113.9", "198.51.100.20"},
		{"trusted peer without header", "10.0.0.1:5555", "", "10.0.0.1"},
		{"trusted peer with header", "10.0.0.1:5555", "203.0.113.9", "203.0.113.9"},
		{"spoofed left hop is skipped", "10.0.0.1:5555", "1.2.3.4, 203.0.113.9", "203.0.113.9"},
		{"chain of trusted proxies", "10.0.0.1:5555", "203.0.113.9, 10.0.1.7", "203.0.113.9"},
		{"malformed hop falls back to peer", "10.0.0.1:5555", "garbage", "10.0.0.1"},
		{"all hops trusted", "10.0.0.1:5555", "10.0.1.8, 10.0.1.7", "10.0.1.8"},
		{"remote without port", "198.51.100.20", "", "198.51.100.20"},
		{"empty remote", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.ClientIP(tt.remote, tt.fwd))
		})
	}
}
