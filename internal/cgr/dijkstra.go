package cgr

// FindRoute runs the time-dependent shortest-path search described in
// spec §4.D: a Dijkstra variant over contacts as vertices, time-respecting
// successions as edges, honoring filters.BannedIDs and
// filters.ForcedPrefixIDs. The first time a contact is popped with a label
// within EpsTime of its stored best, that label is globally optimal for
// that contact.
//
// FindRoute never mutates plan. It returns a structured error only for the
// out-of-range/empty-plan/invalid-request class; every other outcome is
// Route{Found: false}, nil.
func FindRoute(plan Plan, idx NeighborIndex, req RouteRequest, filters Filters) (Route, error) {
	if len(plan) == 0 {
		return Route{}, ErrEmptyPlan
	}
	if err := req.validate(idx); err != nil {
		return Route{}, err
	}

	labels := make([]label, len(plan))
	pq := newPriorityQueue(len(plan))
	expiryAbs := req.ExpiryAbs()

	seedSearch(plan, idx, req, filters, labels, pq, expiryAbs)

	for !pq.empty() {
		cIdx, eta, _ := pq.popMin()

		// Stale-label filtering relies on monotone non-decreasing pops:
		// discard if this pop no longer matches the best known label.
		if !labels[cIdx].set || eta > labels[cIdx].eta+EpsTime {
			continue
		}

		c := plan[cIdx]
		if c.To == req.Dst && prefixSatisfied(plan, labels, cIdx, filters.ForcedPrefixIDs) {
			return reconstruct(plan, labels, cIdx), nil
		}

		expand(plan, idx, req, filters, labels, pq, cIdx, c.To, eta, expiryAbs)
	}

	return Route{Found: false}, nil
}

// seedSearch pushes the initial frontier: either the single forced-prefix
// root contact, or every viable, non-banned contact leaving src_node.
func seedSearch(plan Plan, idx NeighborIndex, req RouteRequest, filters Filters, labels []label, pq *priorityQueue, expiryAbs float64) {
	if len(filters.ForcedPrefixIDs) > 0 {
		wantID := filters.ForcedPrefixIDs[0]
		for _, cIdx := range idx.From(req.Src) {
			c := plan[cIdx]
			if c.ID != wantID || filters.banned(c.ID) {
				continue
			}
			if eta, ok := feasible(c, req.T0, req.BundleBytes, expiryAbs); ok {
				relax(labels, pq, cIdx, eta, -1)
			}
			return
		}
		return
	}

	for _, cIdx := range idx.From(req.Src) {
		c := plan[cIdx]
		if filters.banned(c.ID) {
			continue
		}
		if eta, ok := feasible(c, req.T0, req.BundleBytes, expiryAbs); ok {
			relax(labels, pq, cIdx, eta, -1)
		}
	}
}

// expand relaxes every successor contact of the node reached by popping
// contact cIdx with arrival time eta.
func expand(plan Plan, idx NeighborIndex, req RouteRequest, filters Filters, labels []label, pq *priorityQueue, cIdx, nextNode int, eta, expiryAbs float64) {
	consumed := prefixConsumedLen(plan, labels, cIdx, filters.ForcedPrefixIDs)
	owesForced := consumed < len(filters.ForcedPrefixIDs)
	var wantID int
	if owesForced {
		wantID = filters.ForcedPrefixIDs[consumed]
	}

	for _, nIdx := range idx.From(nextNode) {
		c := plan[nIdx]
		if owesForced && c.ID != wantID {
			continue
		}
		if filters.banned(c.ID) {
			continue
		}
		if !quickFeasible(c, eta, req.BundleBytes) {
			continue
		}
		newEta, ok := feasible(c, eta, req.BundleBytes, expiryAbs)
		if !ok {
			continue
		}
		if !labels[nIdx].set || newEta < labels[nIdx].eta-EpsTime {
			relax(labels, pq, nIdx, newEta, cIdx)
		}
	}
}

func relax(labels []label, pq *priorityQueue, cIdx int, eta float64, prevIdx int) {
	labels[cIdx] = label{eta: eta, prevIdx: prevIdx, set: true}
	pq.push(cIdx, eta)
}

// prefixConsumedLen walks back through prevIdx from contactIdx, collecting
// the ordered list of contact ids from the root, and returns the length of
// the longest run matching forced from the beginning. A cycle guard caps
// the walk; the time-monotone, single-use-per-path structure of valid
// routes means cycles cannot occur, so the cap only defends against data
// corruption.
func prefixConsumedLen(plan Plan, labels []label, contactIdx int, forced []int) int {
	if len(forced) == 0 {
		return 0
	}
	ids := pathIDs(plan, labels, contactIdx)
	n := 0
	for n < len(ids) && n < len(forced) && ids[n] == forced[n] {
		n++
	}
	return n
}

func prefixSatisfied(plan Plan, labels []label, contactIdx int, forced []int) bool {
	if len(forced) == 0 {
		return true
	}
	return prefixConsumedLen(plan, labels, contactIdx, forced) == len(forced)
}

// pathIDs reconstructs the root-first ordered list of contact ids on the
// path ending at contactIdx.
func pathIDs(plan Plan, labels []label, contactIdx int) []int {
	rev := make([]int, 0, 8)
	idx := contactIdx
	guard := len(plan) + 1
	for idx != -1 && guard > 0 {
		rev = append(rev, plan[idx].ID)
		idx = labels[idx].prevIdx
		guard--
	}
	ids := make([]int, len(rev))
	for i, id := range rev {
		ids[len(rev)-1-i] = id
	}
	return ids
}

// reconstruct walks prev_idx back from contactIdx to the root, reverses to
// root-first order, and maps to a Route.
func reconstruct(plan Plan, labels []label, contactIdx int) Route {
	ids := pathIDs(plan, labels, contactIdx)
	return Route{
		Found:     true,
		ContactID: ids,
		ETA:       labels[contactIdx].eta,
		Hops:      len(ids),
	}
}
