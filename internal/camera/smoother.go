package camera

const (
	// ScrubThreshold is the forward time jump, in seconds, beyond which the
	// smoother snaps instead of lerping. Backward jumps always snap.
	ScrubThreshold = 0.5

	// NudgeBlend is how far a manual segment's center is pulled toward the
	// cursor when follow mode is enabled alongside it.
	NudgeBlend = 0.35

	// DefaultFollowFactor is the zoom applied while the camera follows the
	// cursor with no manual segment active.
	DefaultFollowFactor = 1.8
)

// Follow holds the cursor-follow tuning for a session
type Follow struct {
	Enabled bool
	Factor  float64 // forced zoom while following; <=1 falls back to DefaultFollowFactor
}

// Smoother carries the pan position across consecutive frame evaluations so
// cursor-follow produces continuous motion instead of per-frame jumps. One
// Smoother belongs to exactly one render session or export job; it is never
// shared between concurrently running pipelines.
type Smoother struct {
	Follow  Follow
	Profile PanProfile

	camX   float64
	camY   float64
	lastT  float64
	primed bool
}

// NewSmoother creates a smoother for one session
func NewSmoother(follow Follow, profile PanProfile) *Smoother {
	return &Smoother{Follow: follow, Profile: profile}
}

// Reset discards the carried pan state. The next Apply snaps directly to
// its target. Call after any seek the caller knows is discontinuous.
func (s *Smoother) Reset() {
	s.primed = false
}

// Apply folds cursor-follow behavior into a resolved camera for time t.
// active reports whether a manual zoom segment produced the resolved state.
// cursorOK is false when the cursor track has no data, in which case the
// camera never chases the cursor.
//
// Time must normally advance in small steps between calls; a backward step
// or a forward jump past ScrubThreshold is treated as a scrub and snaps the
// pan state instantly so stale positions cannot drag the camera.
func (s *Smoother) Apply(t float64, resolved State, active bool, cursorX, cursorY float64, cursorOK bool) State {
	k := s.Profile.FollowLerp
	if !s.primed || t < s.lastT || t-s.lastT > ScrubThreshold {
		k = 1.0
	}
	s.lastT = t
	s.primed = true

	if !s.Follow.Enabled {
		// Keep the carried position in step with the resolver so a later
		// enable does not lurch from stale state.
		s.camX = resolved.CX
		s.camY = resolved.CY
		return resolved
	}

	followFactor := s.Follow.Factor
	if followFactor <= 1.0 {
		followFactor = DefaultFollowFactor
	}

	var targetX, targetY, factor float64
	switch {
	case active && cursorOK:
		targetX = lerp(resolved.CX, cursorX, NudgeBlend)
		targetY = lerp(resolved.CY, cursorY, NudgeBlend)
		factor = resolved.Factor
	case active:
		targetX, targetY = resolved.CX, resolved.CY
		factor = resolved.Factor
	case cursorOK:
		targetX, targetY = cursorX, cursorY
		factor = followFactor
	default:
		targetX, targetY = 0.5, 0.5
		factor = resolved.Factor
	}

	s.camX = lerp(s.camX, targetX, k)
	s.camY = lerp(s.camY, targetY, k)

	return State{
		Factor: factor,
		CX:     clamp01(s.camX),
		CY:     clamp01(s.camY),
	}
}
