// Package ratelimit provides per-client token buckets for the contacts API.
// Clients are keyed by IP; forwarding headers are honored only when the
// request arrives from a configured trusted proxy.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	httperrors "gitea.jw6.us/james/rolodex/internal/http/errors"
)

// maxClients bounds the bucket map so a scan across many source addresses
// cannot grow it without limit.
const maxClients = 10000

// IPRateLimiter hands out one token bucket per client IP and sweeps idle
// buckets in the background.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client

	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	proxies []*net.IPNet
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter builds a limiter allowing r requests per second with the
// given burst per client. Buckets idle for 2x idleTTL are swept. Entries in
// trustedProxies may be CIDR ranges or single IPs; an empty list means
// forwarding headers from any peer are honored.
func NewIPRateLimiter(r rate.Limit, burst int, idleTTL time.Duration, trustedProxies []string) *IPRateLimiter {
	l := &IPRateLimiter{
		clients: make(map[string]*client),
		limit:   r,
		burst:   burst,
		idleTTL: idleTTL,
		proxies: parseProxies(trustedProxies),
	}
	go l.sweep()
	return l
}

// Middleware rejects requests that exceed the per-IP rate with 429.
func (l *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.bucketFor(l.clientIP(r)).Allow() {
				httperrors.JSON(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *IPRateLimiter) bucketFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= maxClients {
			l.evictOldestLocked()
		}
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.bucket
}

func (l *IPRateLimiter) evictOldestLocked() {
	var oldest string
	var when time.Time
	for ip, c := range l.clients {
		if oldest == "" || c.lastSeen.Before(when) {
			oldest, when = ip, c.lastSeen
		}
	}
	if oldest != "" {
		delete(l.clients, oldest)
	}
}

func (l *IPRateLimiter) sweep() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-2 * l.idleTTL)
		l.mu.Lock()
		for ip, c := range l.clients {
			if c.lastSeen.Before(cutoff) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP resolves the address the bucket is keyed on. X-Forwarded-For and
// X-Real-IP are consulted only when the direct peer is a trusted proxy; the
// leftmost X-Forwarded-For entry is the original client.
func (l *IPRateLimiter) clientIP(r *http.Request) string {
	peer := parseHostIP(r.RemoteAddr)

	if len(l.proxies) > 0 && !containsIP(l.proxies, peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return peer.String()
}

func parseProxies(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		if _, ipnet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		// Single IPs become host-width CIDRs.
		if ip := net.ParseIP(entry); ip != nil {
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			mask := net.CIDRMask(bits, bits)
			nets = append(nets, &net.IPNet{IP: ip.Mask(mask), Mask: mask})
		}
	}
	return nets
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func parseHostIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
