package network

import (
	"errors"
	"net/url"
	"sync"
	"time"
)

var ErrNoProxies = errors.New("no proxies available")

// Rotator hands out proxies round-robin and benches those that answer
// with a blocking status.
type Rotator struct {
	proxies     []*url.URL
	benchFor    time.Duration
	benchedTill map[string]time.Time
	index       int
	mu          sync.Mutex
	now         func() time.Time
}

func NewRotator(raw []string, benchFor time.Duration) (*Rotator, error) {
	rotator := &Rotator{
		benchFor:    benchFor,
		benchedTill: map[string]time.Time{},
		now:         time.Now,
	}

	for _, proxy := range raw {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy must be an absolute URL: " + proxy)
		}
		rotator.proxies = append(rotator.proxies, u)
	}

	return rotator, nil
}

func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, ErrNoProxies
	}

	for range r.proxies {
		proxy := r.proxies[r.index]
		r.index = (r.index + 1) % len(r.proxies)
		if !r.benched(proxy) {
			return proxy, nil
		}
	}
	return nil, ErrNoProxies
}

// Report benches proxy when status signals blocking (403 or 429).
func (r *Rotator) Report(proxy *url.URL, status int) {
	if proxy == nil || !blockingStatus(status) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.benchedTill[proxy.String()] = r.now().Add(r.benchFor)
}

func blockingStatus(status int) bool {
	return status == 403 || status == 429
}

func (r *Rotator) benched(proxy *url.URL) bool {
	until, ok := r.benchedTill[proxy.String()]
	if !ok {
		return false
	}
	if r.now().After(until) {
		delete(r.benchedTill, proxy.String())
		return false
	}
	return true
}
