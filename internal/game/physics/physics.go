package physics

import "math"

// Vector is a 2D value used for aim offsets, wind and flight paths.
// X is horizontal (positive pushes right), Y is vertical (positive pushes up).
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const (
	// How strongly the wind displaces a shot over its full flight.
	windDrift = 0.5

	// Number of sampled points in the returned flight path, impact included.
	pathSteps = 8

	// Scoring rings, measured from the bullseye at the origin.
	bullseyeScore = 10
	ringWidth     = 0.75
	ringPenalty   = 2
)

// Result is the outcome of a single shot: the sampled flight path and the
// score awarded for where it landed.
type Result struct {
	Path  []Vector `json:"path"`
	Score int      `json:"score"`
}

// ComputeShot resolves a shot fired with the given aim offset under the given
// wind. It is a pure function: the same inputs always produce the same result.
//
// The shot leaves the muzzle heading at the aim point and is pushed off
// course by the wind as it flies. The drift grows quadratically with flight
// progress, so the path bends rather than translating sideways as a whole.
func ComputeShot(aim, wind Vector) Result {
	drift := Vector{X: wind.X * windDrift, Y: wind.Y * windDrift}

	path := make([]Vector, 0, pathSteps)
	for i := 1; i <= pathSteps; i++ {
		t := float64(i) / float64(pathSteps)
		path = append(path, Vector{
			X: aim.X*t + drift.X*t*t,
			Y: aim.Y*t + drift.Y*t*t,
		})
	}

	impact := path[len(path)-1]
	return Result{Path: path, Score: scoreAt(impact)}
}

// scoreAt maps an impact point to a ring score. The target is centered on the
// origin; every ringWidth of distance from the bullseye costs ringPenalty
// points, down to zero for a clean miss.
func scoreAt(impact Vector) int {
	dist := math.Hypot(impact.X, impact.Y)
	score := bullseyeScore - ringPenalty*int(dist/ringWidth)
	if score < 0 {
		score = 0
	}
	return score
}
