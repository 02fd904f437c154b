// Command cgrverify runs the six concrete regression scenarios from the
// routing kernel's testable-properties section as a standalone smoke test,
// independent of `go test`.
package main

import (
	"fmt"
	"log"
	"math"

	"github.com/asgard/cgr/internal/cgr"
)

func main() {
	log.Println("CGR kernel verification")

	scenarios := []struct {
		name string
		run  func() error
	}{
		{"linear chain", scenarioLinearChain},
		{"capacity infeasibility", scenarioCapacityInfeasible},
		{"diversification", scenarioDiversification},
		{"consumption detour", scenarioConsumptionDetour},
		{"expiry prunes", scenarioExpiryPrunes},
		{"forced prefix + ban", scenarioForcedPrefixBan},
	}

	failed := 0
	for _, s := range scenarios {
		if err := s.run(); err != nil {
			log.Printf("FAIL: %s: %v", s.name, err)
			failed++
			continue
		}
		log.Printf("PASS: %s", s.name)
	}

	if failed > 0 {
		log.Fatalf("cgrverify: %d scenario(s) failed", failed)
	}
	log.Println("cgrverify: all scenarios passed")
}

func scenarioLinearChain() error {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	rt, err := cgr.FindRoute(plan, idx, req, cgr.Filters{})
	if err != nil {
		return err
	}
	if !rt.Found {
		return fmt.Errorf("expected found=true")
	}
	if rt.Hops != 2 {
		return fmt.Errorf("expected 2 hops, got %d", rt.Hops)
	}
	const wantETA = 10.34
	if math.Abs(rt.ETA-wantETA) > 1e-6 {
		return fmt.Errorf("expected eta=%.6f, got %.6f", wantETA, rt.ETA)
	}
	return nil
}

func scenarioCapacityInfeasible() error {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e7},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	rt, err := cgr.FindRoute(plan, idx, req, cgr.Filters{})
	if err != nil {
		return err
	}
	if rt.Found {
		return fmt.Errorf("expected found=false, got a route")
	}
	return nil
}

func scenarioDiversification() error {
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
		return err
	}
	if len(routes) != 2 {
		return fmt.Errorf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].ContactID[0] == routes[1].ContactID[0] {
		return fmt.Errorf("expected distinct first hops, got %v and %v", routes[0].ContactID, routes[1].ContactID)
	}
	return nil
}

func scenarioConsumptionDetour() error {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 1, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 5e7},
		{ID: 1, From: 1, To: 200, TStart: 5, TEnd: 50, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 5e7},
		{ID: 2, From: 100, To: 2, TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{ID: 3, From: 2, To: 200, TStart: 6, TEnd: 60, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.1, ResidualBytes: 1e8},
	}
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7}

	routes, err := cgr.KConsumeRoutes(plan, req, cgr.Filters{}, 2)
	if err != nil {
		return err
	}
	if len(routes) != 2 {
		return fmt.Errorf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].ContactID[0] != 0 {
		return fmt.Errorf("expected first route via contact 0, got %v", routes[0].ContactID)
	}
	if routes[1].ContactID[0] != 2 {
		return fmt.Errorf("expected second route detoured via contact 2, got %v", routes[1].ContactID)
	}
	return nil
}

func scenarioExpiryPrunes() error {
	plan := cgr.Plan{
		{ID: 0, From: 100, To: 200, TStart: 0, TEnd: 40, OWLT: 30, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
	}
	idx := cgr.BuildNeighborIndex(plan)
	req := cgr.RouteRequest{Src: 100, Dst: 200, T0: 0, BundleBytes: 5e7, ExpiryRel: 5}

	rt, err := cgr.FindRoute(plan, idx, req, cgr.Filters{})
	if err != nil {
		return err
	}
	if rt.Found {
		return fmt.Errorf("expected found=false, latency exceeds expiry")
	}
	return nil
}

func scenarioForcedPrefixBan() error {
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
		return err
	}
	if !rt.Found {
		return fmt.Errorf("expected found=true")
	}
	want := []int{0, 1}
	if len(rt.ContactID) != len(want) || rt.ContactID[0] != want[0] || rt.ContactID[1] != want[1] {
		return fmt.Errorf("expected route %v, got %v", want, rt.ContactID)
	}
	return nil
}
