// Package choice provides seedable random selection over immutable option lists.
package choice

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Option is a selectable value with a relative weight. Weights <= 0 count as 1.
type Option struct {
	Text   string
	Weight int
}

// Uniform wraps plain strings as equally weighted options.
func Uniform(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Text: v, Weight: 1})
	}
	return out
}

// Chooser draws random values. Implementations must be safe for concurrent use.
type Chooser interface {
	Pick(options []Option) Option
	IntN(n int) int
	Float64() float64
}

type randChooser struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Chooser seeded with seed. A zero seed draws one from the clock.
func New(seed int64) Chooser {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randChooser{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Pick returns a weighted random option, or the zero Option when options is empty.
func (c *randChooser) Pick(options []Option) Option {
	if len(options) == 0 {
		return Option{}
	}
	total := 0
	for _, opt := range options {
		total += weight(opt)
	}
	c.mu.Lock()
	target := c.rng.IntN(total)
	c.mu.Unlock()
	for _, opt := range options {
		target -= weight(opt)
		if target < 0 {
			return opt
		}
	}
	return options[len(options)-1]
}

// IntN returns a value in [0, n). Non-positive n yields 0.
func (c *randChooser) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

func (c *randChooser) Float64() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func weight(opt Option) int {
	if opt.Weight <= 0 {
		return 1
	}
	return opt.Weight
}
