package cgr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the allocation/out-of-range class of failures in
// spec §7. All other failure modes (no route, expiry pruning, capacity
// exhaustion, filter contradiction) surface as Route{Found: false}, nil.
var (
	ErrEmptyPlan    = errors.New("cgr: plan has no contacts")
	ErrUnknownNode  = errors.New("cgr: node id out of range")
	ErrInvalidBytes = errors.New("cgr: bundle_bytes must be > 0")
)

// RouteRequest is an immutable planning request.
type RouteRequest struct {
	Src         int
	Dst         int
	T0          float64
	BundleBytes float64
	ExpiryRel   float64 // 0 => no TTL
}

// ExpiryAbs returns the absolute deadline implied by the request, or 0 if
// there is none.
func (r RouteRequest) ExpiryAbs() float64 {
	if r.ExpiryRel <= 0 {
		return 0
	}
	return r.T0 + r.ExpiryRel
}

func (r RouteRequest) validate(idx NeighborIndex) error {
	if r.BundleBytes <= 0 {
		return ErrInvalidBytes
	}
	if !idx.ValidNode(r.Src) {
		return fmt.Errorf("%w: src=%d", ErrUnknownNode, r.Src)
	}
	if !idx.ValidNode(r.Dst) {
		return fmt.Errorf("%w: dst=%d", ErrUnknownNode, r.Dst)
	}
	return nil
}

// Filters constrains a search: banned contact ids must never appear on the
// route, and if ForcedPrefixIDs is non-empty the route must begin with
// exactly that ordered sequence of contact ids.
type Filters struct {
	BannedIDs       map[int]struct{}
	ForcedPrefixIDs []int
}

func (f Filters) banned(id int) bool {
	if f.BannedIDs == nil {
		return false
	}
	_, ok := f.BannedIDs[id]
	return ok
}

// label is the transient per-contact Dijkstra state. Labels exist only
// within one search.
type label struct {
	eta     float64
	prevIdx int // index of predecessor contact in plan, -1 if rooted at src
	set     bool
}

// Route is the result of a planning call: an ordered sequence of contact
// ids from source to destination, the final eta, hop count, and whether a
// route was found at all.
type Route struct {
	Found     bool
	ContactID []int
	ETA       float64
	Hops      int
}

// Latency returns eta - t0 for the request that produced this route.
func (rt Route) Latency(t0 float64) float64 {
	if !rt.Found {
		return 0
	}
	return rt.ETA - t0
}

// canonicalKey returns a hashable key for O(1) dedup of routes by ordered
// contact-id sequence, per the Design Notes: prefer a set keyed by a
// canonical route hash over full-sequence comparison.
func (rt Route) canonicalKey() string {
	key := make([]byte, 0, len(rt.ContactID)*8)
	for _, id := range rt.ContactID {
		key = fmt.Appendf(key, "%d,", id)
	}
	return string(key)
}
