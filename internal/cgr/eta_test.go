package cgr

import (
	"math"
	"testing"
)

func TestFeasible(t *testing.T) {
	tests := []struct {
		name        string
		contact     Contact
		tIn         float64
		bundleBytes float64
		expiryAbs   float64
		wantOK      bool
		wantETA     float64
	}{
		{
			name:        "simple feasible window",
			contact:     Contact{TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
			tIn:         0,
			bundleBytes: 5e7,
			wantOK:      true,
			wantETA:     5.22,
		},
		{
			name:        "insufficient residual capacity",
			contact:     Contact{TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e7},
			tIn:         0,
			bundleBytes: 5e7,
			wantOK:      false,
		},
		{
			name:        "window too narrow for setup",
			contact:     Contact{TStart: 0, TEnd: 0.1, OWLT: 0.01, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
			tIn:         0,
			bundleBytes: 1,
			wantOK:      false,
		},
		{
			name:        "tIn arrives before window opens",
			contact:     Contact{TStart: 10, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
			tIn:         0,
			bundleBytes: 5e7,
			wantOK:      true,
			wantETA:     15.22,
		},
		{
			name:        "expiry prunes a feasible window",
			contact:     Contact{TStart: 0, TEnd: 40, OWLT: 30, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
			tIn:         0,
			bundleBytes: 5e7,
			expiryAbs:   5,
			wantOK:      false,
		},
		{
			name:        "boundary-touching finish is usable",
			contact:     Contact{TStart: 0, TEnd: 5.2, OWLT: 0, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
			tIn:         0,
			bundleBytes: 5e7,
			wantOK:      true,
			wantETA:     5.2,
		},
		{
			name:        "residual exactly equals bundle size",
			contact:     Contact{TStart: 0, TEnd: 40, OWLT: 0, RateBPS: 1e7, SetupS: 0, ResidualBytes: 5e7},
			tIn:         0,
			bundleBytes: 5e7,
			wantOK:      true,
			wantETA:     5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eta, ok := feasible(tt.contact, tt.tIn, tt.bundleBytes, tt.expiryAbs)
			if ok != tt.wantOK {
				t.Fatalf("feasible() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(eta-tt.wantETA) > 1e-6 {
				t.Errorf("feasible() eta = %.9f, want %.9f", eta, tt.wantETA)
			}
		})
	}
}

func TestQuickFeasibleAgreesWithFeasible(t *testing.T) {
	contacts := []Contact{
		{TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
		{TStart: 0, TEnd: 40, OWLT: 0.02, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e7},
		{TStart: 10, TEnd: 10.05, OWLT: 0.01, RateBPS: 1e7, SetupS: 0.2, ResidualBytes: 1e8},
	}

	for _, c := range contacts {
		_, wantOK := feasible(c, 0, 5e7, 0)
		gotOK := quickFeasible(c, 0, 5e7)
		if !gotOK && wantOK {
			t.Errorf("quickFeasible must never reject a contact feasible() accepts: %+v", c)
		}
	}
}
