package cgr

import "math"

// Floating-point tolerance constants. These are part of the observable
// contract: changing them alters behavior near window boundaries.
const (
	EpsTime  = 1e-12
	EpsBytes = 1e-9
)

// feasible computes the earliest arrival time at the far end of contact c
// for a bundle of size bundleBytes arriving at c's origin node at tIn. It
// returns (eta, true) if c can carry the bundle, or (0, false) otherwise.
//
// expiryAbs, if > 0, is an absolute deadline: an eta beyond it (by more than
// EpsTime) is infeasible. A zero expiryAbs means no deadline.
func feasible(c Contact, tIn, bundleBytes, expiryAbs float64) (eta float64, ok bool) {
	rate := c.RateBPS
	if rate < 1 {
		rate = 1 // floor guards against bad data
	}

	startTx := tIn
	if c.TStart > startTx {
		startTx = c.TStart
	}

	effectiveWindow := c.TEnd - startTx - c.SetupS
	if effectiveWindow <= 0 {
		return 0, false
	}

	windowBytes := effectiveWindow * rate
	capacity := c.ResidualBytes
	if windowBytes < capacity {
		capacity = windowBytes
	}
	if capacity+EpsBytes < bundleBytes {
		return 0, false
	}

	txTime := bundleBytes / rate
	finish := startTx + c.SetupS + txTime
	if finish > c.TEnd+EpsTime {
		return 0, false
	}

	eta = finish + c.OWLT
	if expiryAbs > 0 && eta > expiryAbs+EpsTime {
		return 0, false
	}

	return eta, true
}

// quickFeasible is a cheap pre-check mirroring feasible's steps without
// computing the final eta, used to prune relaxations before doing the full
// arithmetic. It returns false only when feasible would also return false;
// it does not check the expiry deadline, so it can accept a contact that
// feasible then rejects.
func quickFeasible(c Contact, tIn, bundleBytes float64) bool {
	rate := c.RateBPS
	if rate < 1 {
		rate = 1
	}

	startTx := math.Max(tIn, c.TStart)
	effectiveWindow := c.TEnd - startTx - c.SetupS
	if effectiveWindow <= 0 {
		return false
	}

	windowBytes := effectiveWindow * rate
	capacity := math.Min(c.ResidualBytes, windowBytes)
	if capacity+EpsBytes < bundleBytes {
		return false
	}

	txTime := bundleBytes / rate
	if startTx+c.SetupS+txTime > c.TEnd+EpsTime {
		return false
	}

	return true
}
