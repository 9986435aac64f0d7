package karaoke

import (
	"math"
)

// baseTransitionTicks is the line-change animation length at
// TransitionSpeed 1.0, in poll ticks.
const baseTransitionTicks = 8

// AnimState tracks the line-change transition and the idle shimmer. It is
// advanced once per tick by the update loop.
type AnimState struct {
	TransitionProgress float64
	GlowIntensity      float64
	ShimmerPhase       float64
}

func (a *AnimState) Reset() {
	a.TransitionProgress = 0
	a.GlowIntensity = 0
	a.ShimmerPhase = 0
}

func (a *AnimState) Update(tickCount int, newLine bool, speed float64) {
	if speed <= 0 {
		speed = 1.0
	}

	if newLine {
		a.TransitionProgress = 0
		a.GlowIntensity = 1.0
	}

	if a.TransitionProgress < 1.0 {
		a.TransitionProgress += speed / baseTransitionTicks
		if a.TransitionProgress > 1.0 {
			a.TransitionProgress = 1.0
		}
	}

	if a.GlowIntensity > 0 {
		a.GlowIntensity *= 0.85
		if a.GlowIntensity < 0.01 {
			a.GlowIntensity = 0
		}
	}

	a.ShimmerPhase = float64(tickCount) * 0.05
}

// SlideOffset is the eased transition position in [0,1].
func (a *AnimState) SlideOffset() float64 {
	return easeOutCubic(a.TransitionProgress)
}

func easeOutCubic(t float64) float64 {
	if t >= 1 {
		return 1
	}
	if t <= 0 {
		return 0
	}
	return 1 - math.Pow(1-t, 3)
}

func lerp(a float64, b float64, t float64) float64 {
	return a + (b-a)*t
}
