package linefield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/synthteams/internal/choice"
)

func TestGenerateBounds(t *testing.T) {
	lines := Generate(DefaultLines, DefaultWidth, DefaultHeight, choice.New(8))
	require.Len(t, lines, DefaultLines)
	for i, line := range lines {
		assert.Equal(t, i, line.ID)
		assert.GreaterOrEqual(t, line.X, 0.0)
		assert.Less(t, line.X, float64(DefaultWidth))
		assert.GreaterOrEqual(t, line.Y, 0.0)
		assert.Less(t, line.Y, float64(DefaultHeight))
		assert.GreaterOrEqual(t, line.Length, 150.0)
		assert.Less(t, line.Length, 350.0)
		assert.GreaterOrEqual(t, line.Speed, 0.2)
		assert.Less(t, line.Speed, 0.5)
		assert.GreaterOrEqual(t, line.Rotation, 0.0)
		assert.Less(t, line.Rotation, 360.0)
	}
	assert.Empty(t, Generate(-3, 10, 10, choice.New(1)))
}

func TestApply(t *testing.T) {
	line := Line{X: 10, Y: 20, Rotation: 45, Speed: 0.5}
	got := Apply(line, 100, 40)
	assert.InDelta(t, 10+100*0.5*0.3, got.X, 1e-9)
	assert.InDelta(t, 20+40*0.5*0.3, got.Y, 1e-9)
	assert.InDelta(t, 45+60*0.05, got.Rotation, 1e-9)
}

func TestDefaultMotionMatchesGenerate(t *testing.T) {
	m := DefaultMotion()
	assert.Equal(t, DefaultSpring(), m.Spring)
	assert.Greater(t, m.Spring.Damping*m.Spring.Damping, 4*m.Spring.Mass*m.Spring.Stiffness, "spring must be overdamped")
	assert.Equal(t, 5.0, m.BoostDivisor)
	assert.Equal(t, 4.0, m.MaxBoost)

	for _, line := range Generate(50, 100, 100, choice.New(4)) {
		assert.GreaterOrEqual(t, line.Speed, m.MinSpeed)
		assert.Less(t, line.Speed, m.MinSpeed+m.SpeedSpread)
	}

	line := Line{X: 1, Y: 2, Rotation: 3, Speed: 1}
	got := Apply(line, 10, 0)
	assert.InDelta(t, 1+10*m.Follow, got.X, 1e-9)
	assert.InDelta(t, 3+10*m.Twist, got.Rotation, 1e-9)
}
