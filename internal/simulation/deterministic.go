package simulation

import "time"

// seedFunc returns a pseudo-random base seed (override for deterministic
// Monte Carlo tests). Scenario seeds are derived from it, one per scenario,
// so randomness streams stay seed-isolated across workers.
var seedFunc = func() int64 { return time.Now().UnixNano() }

// SetSeedFunc overrides base-seed generation; pass nil to restore the default.
func SetSeedFunc(f func() int64) {
	if f == nil {
		seedFunc = func() int64 { return time.Now().UnixNano() }
		return
	}
	seedFunc = f
}
