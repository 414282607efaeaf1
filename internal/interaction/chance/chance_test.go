package chance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollPercent_Bounds(t *testing.T) {
	src := Default()
	for i := 0; i < 1000; i++ {
		assert.False(t, RollPercent(src, 0), "0% никогда не срабатывает")
		assert.True(t, RollPercent(src, 100), "100% срабатывает всегда")
	}
	assert.False(t, RollPercent(src, -5))
	assert.True(t, RollPercent(src, 250))
}

func TestRollPercent_BoundsDoNotConsumeSource(t *testing.T) {
	s := &Script{Ints: []int{0}}
	RollPercent(s, 0)
	RollPercent(s, 100)
	ints, _ := s.Calls()
	assert.Equal(t, 0, ints)
}

func TestRollPercent_Frequency(t *testing.T) {
	const trials = 200000
	src := Default()

	for _, p := range []int{1, 25, 50, 90} {
		hits := 0
		for i := 0; i < trials; i++ {
			if RollPercent(src, p) {
				hits++
			}
		}
		got := float64(hits) / trials
		assert.InDelta(t, float64(p)/100, got, 0.01, "частота для p=%d", p)
	}
}

func TestRollPercent_Threshold(t *testing.T) {
	s := &Script{Ints: []int{29, 30}}
	assert.True(t, RollPercent(s, 30), "бросок 29 < 30")
	assert.False(t, RollPercent(s, 30), "бросок 30 не меньше 30")
}

func TestRollRange(t *testing.T) {
	src := Default()
	seen := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		v := RollRange(src, 2, 5)
		assert.GreaterOrEqual(t, v, 2)
		assert.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 4, "все значения закрытого интервала достижимы")

	assert.Equal(t, 3, RollRange(src, 3, 3))
	v := RollRange(src, 5, 2)
	assert.True(t, v >= 2 && v <= 5, "перевёрнутый интервал разворачивается")
}

func TestUnit(t *testing.T) {
	src := Default()
	for i := 0; i < 5000; i++ {
		u := Unit(src)
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}
