package cgr

// KYenRoutes produces up to k topologically diverse routes via spur-and-ban
// exploration: seed the result with the base best route, then repeatedly
// divert from every position of every route already in the result (forcing
// the prefix up to that position and banning the hop at it), keeping
// whichever feasible, not-yet-seen candidate has the smallest eta, until k
// is reached or a round adds nothing. Unlike KConsumeRoutes this never
// mutates residual capacity; it expresses topological diversity, not
// contention.
//
// Total FindRoute invocations are capped at 20*k to bound worst-case cost.
func KYenRoutes(plan Plan, idx NeighborIndex, req RouteRequest, baseFilters Filters, k int) ([]Route, error) {
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	if k <= 0 {
		return nil, nil
	}

	base, err := FindRoute(plan, idx, req, baseFilters)
	if err != nil {
		return nil, err
	}
	if !base.Found {
		return nil, nil
	}

	results := []Route{base}
	seen := map[string]struct{}{base.canonicalKey(): {}}
	maxInvocations := 20 * k
	invocations := 0

	for len(results) < k {
		var best Route
		bestSet := false

	positions:
		for _, rt := range results {
			for i := range rt.ContactID {
				if invocations >= maxInvocations {
					break positions
				}
				invocations++

				filters := Filters{
					BannedIDs:       mergeBanned(baseFilters.BannedIDs, rt.ContactID[i]),
					ForcedPrefixIDs: append([]int(nil), rt.ContactID[:i]...),
				}

				cand, err := FindRoute(plan, idx, req, filters)
				if err != nil {
					return results, err
				}
				if !cand.Found {
					continue
				}
				if _, dup := seen[cand.canonicalKey()]; dup {
					continue
				}
				if !bestSet || cand.ETA < best.ETA-EpsTime {
					best = cand
					bestSet = true
				}
			}
		}

		if !bestSet {
			break
		}
		results = append(results, best)
		seen[best.canonicalKey()] = struct{}{}
	}

	return results, nil
}

func mergeBanned(base map[int]struct{}, extra int) map[int]struct{} {
	out := make(map[int]struct{}, len(base)+1)
	for id := range base {
		out[id] = struct{}{}
	}
	out[extra] = struct{}{}
	return out
}
