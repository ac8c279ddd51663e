package captcha

import (
	"fmt"
	"math"
)

// TrackPolicy selects how the drag trajectory is shaped.
type TrackPolicy string

const (
	// PolicySimple accelerates to four fifths of the distance and brakes
	// for the rest. Uniform motion is itself a bot signature, so neither
	// phase holds a constant velocity.
	PolicySimple TrackPolicy = "simple"

	// PolicyEased samples an exponential ease-out curve over a fixed
	// duration and emits the first differences.
	PolicyEased TrackPolicy = "eased"
)

// SynthesizeTrack produces a sequence of pixel deltas whose sum is exactly
// distance, shaped like a human drag. The final step absorbs any rounding
// drift.
func SynthesizeTrack(distance int, policy TrackPolicy) ([]int, error) {
	if distance <= 0 {
		return nil, fmt.Errorf("track distance must be positive, got %d", distance)
	}
	switch policy {
	case PolicySimple, "":
		return simpleTrack(distance), nil
	case PolicyEased:
		return easedTrack(distance), nil
	default:
		return nil, fmt.Errorf("unknown track policy: %s", policy)
	}
}

// simpleTrack integrates velocity at a fixed time step, accelerating at +4
// until four fifths of the distance, then braking at -3. Each step emits
// the rounded displacement; the final step is clamped so the cumulative
// sum lands on distance exactly.
func simpleTrack(distance int) []int {
	var track []int
	current := 0.0
	emitted := 0
	mid := float64(distance) * 4 / 5
	const t = 0.2
	v := 1.0

	for emitted < distance {
		var a float64
		if current < mid {
			a = 4
		} else {
			a = -3
		}
		v0 := v
		v = v0 + a*t
		move := v0*t + 0.5*a*t*t
		current += move

		delta := int(math.Round(move))
		if emitted+delta > distance || current >= float64(distance) {
			delta = distance - emitted
		}
		track = append(track, delta)
		emitted += delta
	}
	return track
}

// easedTrack samples easeOutExpo at 0.1s increments over a 2s drag and
// takes first differences of the rounded cumulative offsets. The sampled
// curve never quite reaches 1, and rounding can drift a pixel or two, so a
// final correcting step forces the sum onto distance.
func easedTrack(distance int) []int {
	const seconds = 2.0
	const step = 0.1

	var track []int
	prev := 0
	for t := 0.0; t < seconds-step/2; t += step {
		offset := int(math.Round(easeOutExpo(t/seconds) * float64(distance)))
		track = append(track, offset-prev)
		prev = offset
	}
	if prev != distance {
		track = append(track, distance-prev)
	}
	return track
}

func easeOutExpo(x float64) float64 {
	if x >= 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*x)
}
