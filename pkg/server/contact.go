package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// contactLimiter keeps one token bucket per client address.
type contactLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	proxies []netip.Prefix
	clients map[string]*rate.Limiter
}

func newContactLimiter(perMinute float64, burst int, proxies []netip.Prefix) *contactLimiter {
	return &contactLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   max(burst, 1),
		proxies: proxies,
		clients: make(map[string]*rate.Limiter),
	}
}

func (c *contactLimiter) Allow(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.clients[client]
	if !ok {
		if len(c.clients) >= maxTrackedClients {
			clear(c.clients)
		}
		l = rate.NewLimiter(c.limit, c.burst)
		c.clients[client] = l
	}
	return l.Allow()
}

func (c *contactLimiter) trusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range c.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientAddress is the peer address of r. When the peer is a trusted proxy
// the X-Forwarded-For hops are walked from the right and the first one that
// is not a trusted proxy is used.
func (c *contactLimiter) clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !c.trusted(host) {
		return host
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" || c.trusted(hop) {
			continue
		}
		return hop
	}
	return host
}
