package slew

// Apply moves current toward target by at most ratePerSec*elapsedMs/1000 and
// returns the new value. When the remaining distance is within one step the
// target is returned exactly, so repeated application converges in a finite
// number of steps and never overshoots. ratePerSec<=0 or elapsedMs<=0 snaps
// to target.
func Apply(target, current, ratePerSec float32, elapsedMs int64) float32 {
	if ratePerSec <= 0 || elapsedMs <= 0 {
		return target
	}
	step := ratePerSec * float32(elapsedMs) / 1000
	diff := target - current
	if diff > step {
		return current + step
	}
	if diff < -step {
		return current - step
	}
	return target
}
