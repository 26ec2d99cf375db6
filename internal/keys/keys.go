// Package keys selects provider API keys from a configured pool.
//
// Selection is a pure function of the pool and an explicitly constructed
// Strategy. There is no package-level state; callers own their strategies.
package keys

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
)

// ErrNoKey is returned when neither an override nor a pool key is available.
var ErrNoKey = errors.New("no API key configured")

// Strategy picks an index in [0, n). n is always > 0.
type Strategy func(n int) int

// First always picks the first key.
func First() Strategy {
	return func(int) int { return 0 }
}

// RoundRobin cycles through the pool. The returned strategy is safe for
// concurrent use.
func RoundRobin() Strategy {
	var next atomic.Uint64
	return func(n int) int {
		return int((next.Add(1) - 1) % uint64(n))
	}
}

// Random picks uniformly using r. A nil r uses the global math/rand/v2 source.
func Random(r *rand.Rand) Strategy {
	return func(n int) int {
		if r == nil {
			return rand.IntN(n)
		}
		return r.IntN(n)
	}
}

// Named returns the strategy for a configuration name: "first",
// "round_robin" (default) or "random".
func Named(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "round_robin", "roundrobin":
		return RoundRobin(), nil
	case "first":
		return First(), nil
	case "random":
		return Random(nil), nil
	default:
		return nil, fmt.Errorf("unknown key strategy %q", name)
	}
}

// Select returns a key from pool using strategy. Empty entries are ignored.
func Select(pool []string, strategy Strategy) (string, error) {
	usable := make([]string, 0, len(pool))
	for _, k := range pool {
		if k = strings.TrimSpace(k); k != "" {
			usable = append(usable, k)
		}
	}
	if len(usable) == 0 {
		return "", ErrNoKey
	}
	if strategy == nil {
		strategy = First()
	}
	idx := strategy(len(usable))
	if idx < 0 || idx >= len(usable) {
		idx = 0
	}
	return usable[idx], nil
}

// Resolve prefers a non-empty override, falling back to Select.
func Resolve(override string, pool []string, strategy Strategy) (string, error) {
	if o := strings.TrimSpace(override); o != "" {
		return o, nil
	}
	return Select(pool, strategy)
}
