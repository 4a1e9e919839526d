package components

import (
	"fmt"
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/splax/synthteams/internal/service/linefield"
)

// Background renders the line field at rest. The page script reads the
// motion constants from data attributes and follows the pointer.
func Background(lines []linefield.Line, motion linefield.Motion) g.Node {
	return Div(
		ID("animated-background"),
		Class("animated-background"),
		g.Attr("aria-hidden", "true"),
		g.Attr("data-damping", formatFloat(motion.Spring.Damping)),
		g.Attr("data-stiffness", formatFloat(motion.Spring.Stiffness)),
		g.Attr("data-mass", formatFloat(motion.Spring.Mass)),
		g.Attr("data-boost-divisor", formatFloat(motion.BoostDivisor)),
		g.Attr("data-boost-max", formatFloat(motion.MaxBoost)),
		g.Attr("data-speed-min", formatFloat(motion.MinSpeed)),
		g.Attr("data-speed-spread", formatFloat(motion.SpeedSpread)),
		g.Attr("data-follow", formatFloat(motion.Follow)),
		g.Attr("data-twist", formatFloat(motion.Twist)),
		g.Map(lines, backgroundLine),
	)
}

func backgroundLine(line linefield.Line) g.Node {
	rest := linefield.Apply(line, 0, 0)
	return Div(
		Class("line"),
		g.Attr("data-x", formatFloat(line.X)),
		g.Attr("data-y", formatFloat(line.Y)),
		g.Attr("data-rotation", formatFloat(line.Rotation)),
		g.Attr("data-speed", formatFloat(line.Speed)),
		Style(fmt.Sprintf("width:%spx;transform:translate(%spx,%spx) rotate(%sdeg)",
			formatFloat(line.Length), formatFloat(rest.X), formatFloat(rest.Y), formatFloat(rest.Rotation))),
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
