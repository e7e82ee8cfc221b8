package stream

import "sync"

const (
	// defaultMaxPerIP applies when the configured per-IP limit is zero or
	// negative.
	defaultMaxPerIP = 10
	// globalStreamCap bounds concurrent SSE connections across all IPs.
	globalStreamCap = 1000
)

// streamLimiter counts live SSE connections per client IP and in total.
// acquire and release bracket a connection's lifetime.
type streamLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	active   int
	maxPerIP int
	maxTotal int
}

func newStreamLimiter(maxPerIP int) *streamLimiter {
	if maxPerIP < 1 {
		maxPerIP = defaultMaxPerIP
	}
	return &streamLimiter{
		perIP:    make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: globalStreamCap,
	}
}

// acquire claims a slot for ip. It fails when either the per-IP or the
// global ceiling is already reached.
func (l *streamLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active >= l.maxTotal || l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	l.active++
	return true
}

// release returns ip's slot. Entries that drop to zero leave the map.
func (l *streamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active--
	if l.perIP[ip] <= 1 {
		delete(l.perIP, ip)
	} else {
		l.perIP[ip]--
	}
}

// count reports ip's live connections.
func (l *streamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
