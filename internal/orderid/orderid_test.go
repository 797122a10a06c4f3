package orderid

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	day := time.Date(2025, time.January, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20250101-0001", Format(day, 1))
	assert.Equal(t, "ORD-20250101-9999", Format(day, 9999))
	assert.Equal(t, "ORD-20250101-0000", Format(day, 0))
}

func TestFormatAlwaysValid(t *testing.T) {
	cases := []struct {
		at   time.Time
		n    int
		want string
	}{
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), -3, "ORD-20250101-9997"},
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 12345, "ORD-20250101-2345"},
		{time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC), 1, "ORD-00000101-0001"},
		{time.Date(-5, time.March, 2, 0, 0, 0, 0, time.UTC), 1, "ORD-99950302-0001"},
	}

	for _, c := range cases {
		id := Format(c.at, c.n)
		assert.Equal(t, c.want, id)
		assert.True(t, Valid(id), id)
	}
}

func TestGeneratorUsesUTCDate(t *testing.T) {
	karachi := time.FixedZone("PKT", 5*60*60)
	// 00:30 on Jan 2 in Karachi is still Jan 1 in UTC.
	at := time.Date(2025, time.January, 2, 0, 30, 0, 0, karachi)
	g := NewGenerator(WithClock(func() time.Time { return at }), WithRand(rand.New(rand.NewPCG(1, 2))))

	assert.Contains(t, g.New(), "ORD-20250101-")
}

func TestGeneratorMatchesPattern(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	start := time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 500; i++ {
		at := start.Add(time.Duration(i) * 37 * time.Hour)
		g := NewGenerator(WithClock(func() time.Time { return at }), WithRand(r))

		id := g.New()
		assert.True(t, Valid(id), id)
		assert.Contains(t, id, at.UTC().Format("20060102"))
	}
}

func TestDefaultGenerator(t *testing.T) {
	assert.True(t, Valid(NewGenerator().New()))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ORD-20250101-0001", Normalize(" ord-20250101-0001 "))
	assert.False(t, Valid("ord-20250101-0001"))
	assert.False(t, Valid("ORD-2025011-0001"))
}
