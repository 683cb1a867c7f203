package ratelimit

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	last    time.Time
}

// PerIP hands out one token bucket per client address. Buckets live in a
// bounded LRU and are dropped after ttl of inactivity.
type PerIP struct {
	mu       sync.Mutex
	visitors *lru.Cache[string, *visitor]
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

func NewPerIP(limit, burst, cacheSize int, ttl time.Duration) *PerIP {
	if cacheSize <= 0 {
		cacheSize = 10_000
	}
	visitors, _ := lru.New[string, *visitor](cacheSize)

	p := &PerIP{
		visitors: visitors,
		limit:    rate.Limit(limit),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go p.janitor()
	}
	return p
}

func (p *PerIP) Allow(host string) bool {
	p.mu.Lock()
	now := p.now()
	v, ok := p.visitors.Get(host)
	if !ok || (p.ttl > 0 && now.Sub(v.last) > p.ttl) {
		v = &visitor{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.visitors.Add(host, v)
	}
	v.last = now
	p.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Close stops the background sweep.
func (p *PerIP) Close() {
	p.once.Do(func() { close(p.stop) })
}

func (p *PerIP) janitor() {
	ticker := time.NewTicker(p.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.sweep()
		}
	}
}

func (p *PerIP) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for _, key := range p.visitors.Keys() {
		if v, ok := p.visitors.Peek(key); ok && now.Sub(v.last) > p.ttl {
			p.visitors.Remove(key)
		}
	}
}
