package cgr

import "testing"

func twoPathEqualResidualPlan() Plan {
	return Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 5e7},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 5e7},
		{ID: 2, From: 100, To: 2, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 3, From: 2, To: 200, TStart: 6, TEnd: 60, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
}

func TestKConsumeRoutes_Detour(t *testing.T) {
	plan := twoPathEqualResidualPlan()
	req := RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	routes, err := KConsumeRoutes(plan, req, Filters{}, 2)
	if err != nil {
		t.Fatalf("KConsumeRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].ContactID[0] != 0 {
		t.Errorf("expected first route via contact 0, got %v", routes[0].ContactID)
	}
	if routes[1].ContactID[0] != 2 {
		t.Errorf("expected second route detoured via contact 2, got %v", routes[1].ContactID)
	}
}

// TestKConsumeRoutes_CapacityRespected checks that repeated consumption on a
// single-path plan eventually exhausts capacity and the search correctly
// stops reporting a route rather than going negative.
func TestKConsumeRoutes_CapacityRespected(t *testing.T) {
	plan := linearChainPlan()
	req := RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	routes, err := KConsumeRoutes(plan, req, Filters{}, 3)
	if err != nil {
		t.Fatalf("KConsumeRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected exactly 2 feasible consumptions before residual exhausts, got %d", len(routes))
	}
}

// TestKConsumeRoutes_NonMutation checks the caller's plan is never modified.
func TestKConsumeRoutes_NonMutation(t *testing.T) {
	plan := twoPathEqualResidualPlan()
	before := plan.Clone()
	req := RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	if _, err := KConsumeRoutes(plan, req, Filters{}, 2); err != nil {
		t.Fatalf("KConsumeRoutes() error = %v", err)
	}

	for i := range plan {
		if plan[i] != before[i] {
			t.Errorf("contact %d mutated: before=%+v after=%+v", i, before[i], plan[i])
		}
	}
}

// TestKConsumeRoutes_MonotonicResidual checks that consuming a contact never
// increases its residual capacity and never drives it negative.
func TestKConsumeRoutes_MonotonicResidual(t *testing.T) {
	working := linearChainPlan().Clone()
	byID := make(map[int]int, len(working))
	for i, c := range working {
		byID[c.ID] = i
	}
	rt := Route{ContactID: []int{0, 1}}

	before := working[0].ResidualBytes
	consumeRoute(working, byID, rt, 5e7)
	if working[0].ResidualBytes >= before {
		t.Errorf("expected residual to decrease, before=%.0f after=%.0f", before, working[0].ResidualBytes)
	}
	if working[0].ResidualBytes < 0 {
		t.Errorf("residual went negative: %.0f", working[0].ResidualBytes)
	}

	consumeRoute(working, byID, rt, 1e9)
	if working[0].ResidualBytes != 0 {
		t.Errorf("expected residual to saturate at 0, got %.0f", working[0].ResidualBytes)
	}
}

func TestKConsumeRoutes_ZeroK(t *testing.T) {
	plan := linearChainPlan()
	req := RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	routes, err := KConsumeRoutes(plan, req, Filters{}, 0)
	if err != nil {
		t.Fatalf("KConsumeRoutes() error = %v", err)
	}
	if routes != nil {
		t.Errorf("expected nil routes for k=0, got %v", routes)
	}
}

func TestKConsumeRoutes_EmptyPlan(t *testing.T) {
	req := RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}
	_, err := KConsumeRoutes(Plan{}, req, Filters{}, 2)
	if err != ErrEmptyPlan {
		t.Fatalf("expected ErrEmptyPlan, got %v", err)
	}
}
