// Package orderid generates human readable order identifiers of the form
// ORD-YYYYMMDD-NNNN.
//
// The four digit suffix is random, so identifiers are not unique on their
// own; the orders table's unique constraint is the backstop and callers
// regenerate on collision.
package orderid

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

const Prefix = "ORD"

var pattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

type Generator struct {
	now  func() time.Time
	intn func(int) int
}

type Option func(*Generator)

// WithClock overrides the clock used for the date part.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRand overrides the source of the random suffix.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.intn = r.IntN
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:  time.Now,
		intn: rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// New returns an identifier dated with the current UTC day, the same day
// the order's createdAt falls on.
func (g *Generator) New() string {
	return Format(g.now(), g.intn(10000))
}

// Format builds the identifier for the UTC date of t and suffix n. The year
// and n are reduced into four digits so the result always passes Valid.
func Format(t time.Time, n int) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%04d%02d%02d-%04d", Prefix, mod(t.Year(), 10000), int(t.Month()), t.Day(), mod(n, 10000))
}

func mod(n, m int) int {
	return (n%m + m) % m
}

func Valid(id string) bool {
	return pattern.MatchString(id)
}

// Normalize upper-cases and trims a user supplied identifier.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
