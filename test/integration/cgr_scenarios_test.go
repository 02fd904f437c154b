package integration_test

import (
	"math"
	"testing"

	"github.com/asgard/cgr/internal/cgr"
)

func TestCGR_LinearChainETA(t *testing.T) {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	rt, err := cgr.FindRoute(plan, idx, req, cgr.Filters{})
	if err != nil {
		t.Fatalf("FindRoute() error = %v", err)
	}
	if !rt.Found || rt.Hops != 2 {
		t.Fatalf("expected a 2-hop route, got %+v", rt)
	}
	if math.Abs(rt.ETA-10.34) > 1e-6 {
		t.Errorf("ETA = %.6f, want 10.34", rt.ETA)
	}
}

func TestCGR_CapacityInfeasible(t *testing.T) {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e7},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	rt, err := cgr.FindRoute(plan, idx, req, cgr.Filters{})
	if err != nil {
		t.Fatalf("FindRoute() error = %v", err)
	}
	if rt.Found {
		t.Fatalf("expected no feasible route, got %+v", rt)
	}
}

func TestCGR_Diversification(t *testing.T) {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
		{ID: 2, From: 100, To: 2, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 3, From: 2, To: 200, TStart: 6, TEnd: 60, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	routes, err := cgr.KYenRoutes(plan, idx, req, cgr.Filters{}, 2)
	if err != nil {
		t.Fatalf("KYenRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].ContactID[0] == routes[1].ContactID[0] {
		t.Errorf("expected distinct first hops, got %v and %v", routes[0].ContactID, routes[1].ContactID)
	}
}

func TestCGR_ConsumptionDetour(t *testing.T) {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 5e7},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 5e7},
		{ID: 2, From: 100, To: 2, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 3, From: 2, To: 200, TStart: 6, TEnd: 60, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	routes, err := cgr.KConsumeRoutes(plan, req, cgr.Filters{}, 2)
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

func TestCGR_ExpiryPrunes(t *testing.T) {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 200, TStart: 0, TEnd: 40, OWLT: 30, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7, ExpiryRel: 5}

	rt, err := cgr.FindRoute(plan, idx, req, cgr.Filters{})
	if err != nil {
		t.Fatalf("FindRoute() error = %v", err)
	}
	if rt.Found {
		t.Fatalf("expected no route within expiry, got %+v", rt)
	}
}

func TestCGR_ForcedPrefixAndBan(t *testing.T) {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
		{ID: 2, From: 100, To: 2, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 3, From: 2, To: 200, TStart: 6, TEnd: 60, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
		{ID: 4, From: 100, To: 3, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 5, From: 3, To: 200, TStart: 7, TEnd: 70, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}
	filters := cgr.Filters{
		ForcedPrefixIDs: []int{0},
		BannedIDs:       map[int]struct{}{3: {}},
	}

	rt, err := cgr.FindRoute(plan, idx, req, filters)
	if err != nil {
		t.Fatalf("FindRoute() error = %v", err)
	}
	if !rt.Found {
		t.Fatal("expected a route")
	}
	if len(rt.ContactID) != 2 || rt.ContactID[0] != 0 || rt.ContactID[1] != 1 {
		t.Errorf("expected route [0,1], got %v", rt.ContactID)
	}
}
