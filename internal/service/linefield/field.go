// Package linefield generates the decorative background lines and the
// pointer-follow math the page script applies to them.
package linefield

import "github.com/splax/synthteams/internal/choice"

const (
	minLength      = 150
	lengthSpread   = 200
	minSpeed       = 0.2
	speedSpread    = 0.3
	followFactor   = 0.3
	rotationFactor = 0.05
	pointerDivisor = 5
	maxSpeedBoost  = 4
	DefaultLines   = 60
	DefaultWidth   = 1440
	DefaultHeight  = 900
)

// Line is one decorative segment.
type Line struct {
	ID       int
	X        float64
	Y        float64
	Length   float64
	Rotation float64
	Speed    float64
}

// Generate scatters n lines over a width×height viewport.
func Generate(n int, width, height float64, c choice.Chooser) []Line {
	if n < 0 {
		n = 0
	}
	lines := make([]Line, n)
	for i := range lines {
		lines[i] = Line{
			ID:       i,
			X:        c.Float64() * width,
			Y:        c.Float64() * height,
			Length:   minLength + c.Float64()*lengthSpread,
			Rotation: c.Float64() * 360,
			Speed:    BaseSpeed(c),
		}
	}
	return lines
}

// BaseSpeed draws a resting speed in [0.2, 0.5).
func BaseSpeed(c choice.Chooser) float64 {
	return minSpeed + c.Float64()*speedSpread
}

// Transform is the translated position and rotation of a line for a
// spring-smoothed pointer position.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

// Apply computes where line sits for pointer (px, py).
func Apply(line Line, px, py float64) Transform {
	return Transform{
		X:        line.X + px*line.Speed*followFactor,
		Y:        line.Y + py*line.Speed*followFactor,
		Rotation: line.Rotation + (px-py)*rotationFactor,
	}
}
