package cgr

// KConsumeRoutes produces up to k routes by running FindRoute repeatedly on
// a mutable copy of plan, decrementing the residual capacity of every used
// contact by req.BundleBytes (saturating at 0) between iterations. Stops
// early if a run returns "not found". The caller's plan is never modified;
// routes returned may share prefixes, reflecting realistic contention on a
// premium link that is not infinitely reusable.
func KConsumeRoutes(plan Plan, req RouteRequest, filters Filters, k int) ([]Route, error) {
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	if k <= 0 {
		return nil, nil
	}

	working := plan.Clone()
	idx := BuildNeighborIndex(working)
	byID := make(map[int]int, len(working))
	for i, c := range working {
		byID[c.ID] = i
	}

	routes := make([]Route, 0, k)
	for i := 0; i < k; i++ {
		rt, err := FindRoute(working, idx, req, filters)
		if err != nil {
			return routes, err
		}
		if !rt.Found {
			break
		}
		routes = append(routes, rt)
		consumeRoute(working, byID, rt, req.BundleBytes)
	}

	return routes, nil
}

func consumeRoute(working Plan, byID map[int]int, rt Route, bundleBytes float64) {
	for _, id := range rt.ContactID {
		wIdx, ok := byID[id]
		if !ok {
			continue
		}
		residual := working[wIdx].ResidualBytes - bundleBytes
		if residual < 0 {
			residual = 0
		}
		working[wIdx].ResidualBytes = residual
	}
}
