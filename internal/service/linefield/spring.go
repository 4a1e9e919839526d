package linefield

// Spring holds the damped spring constants the page script follows the
// pointer with. Damping 20, stiffness 40 and mass 1 is overdamped, so the
// lines never overshoot the pointer.
type Spring struct {
	Damping   float64
	Stiffness float64
	Mass      float64
}

// DefaultSpring returns the spring the background follows the pointer with.
func DefaultSpring() Spring {
	return Spring{Damping: 20, Stiffness: 40, Mass: 1}
}

// Motion is everything the page script needs to animate the field.
type Motion struct {
	Spring Spring
	// Pointer movement is divided by BoostDivisor and capped at MaxBoost
	// before it scales a re-rolled line speed.
	BoostDivisor float64
	MaxBoost     float64
	MinSpeed     float64
	SpeedSpread  float64
	Follow       float64
	Twist        float64
}

// DefaultMotion returns the constants used by Generate and Apply.
func DefaultMotion() Motion {
	return Motion{
		Spring:       DefaultSpring(),
		BoostDivisor: pointerDivisor,
		MaxBoost:     maxSpeedBoost,
		MinSpeed:     minSpeed,
		SpeedSpread:  speedSpread,
		Follow:       followFactor,
		Twist:        rotationFactor,
	}
}
