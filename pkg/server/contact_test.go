package server

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientAddress(t *testing.T) {
	limiter := newContactLimiter(6, 1, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})
	request := func(remote string, forwarded ...string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		r.RemoteAddr = remote
		for _, f := range forwarded {
			r.Header.Add("X-Forwarded-For", f)
		}
		return r
	}

	assert.Equal(t, "203.0.113.9", limiter.clientAddress(request("203.0.113.9:4000", "1.1.1.1")))
	assert.Equal(t, "198.51.100.7", limiter.clientAddress(request("10.0.0.2:80", "1.1.1.1, 198.51.100.7")))
	assert.Equal(t, "198.51.100.7", limiter.clientAddress(request("10.0.0.2:80", "1.1.1.1, 198.51.100.7, 10.1.2.3")))
	assert.Equal(t, "198.51.100.7", limiter.clientAddress(request("10.0.0.2:80", "1.1.1.1", "198.51.100.7")))
	assert.Equal(t, "10.0.0.2", limiter.clientAddress(request("10.0.0.2:80")))
	assert.Equal(t, "10.0.0.2", limiter.clientAddress(request("10.0.0.2:80", "10.0.0.3")))
}

func TestContactLimiterKeysOnClient(t *testing.T) {
	limiter := newContactLimiter(6, 1, nil)
	assert.True(t, limiter.Allow("203.0.113.9"))
	assert.False(t, limiter.Allow("203.0.113.9"))
	assert.True(t, limiter.Allow("203.0.113.10"))
}
