package cgr

import "testing"

func TestWaitPenalty_ObserveAndApply(t *testing.T) {
	wp := NewWaitPenalty(0.5, 1.0)
	wp.Observe(0, 0, 4) // wait of 4

	if got := wp.PenaltyFor(0); got != 2 { // (1-0.5)*0 + 0.5*4
		t.Errorf("PenaltyFor(0) = %.3f, want 2.0", got)
	}

	base := Plan{
		{ID: 0, From: 100, To: 1, SetupS: 0.2},
		{ID: 1, From: 1, To: 200, SetupS: 0.1},
	}
	applied := wp.Apply(base)
	if applied[0].SetupS != 0.2+1.0*2 {
		t.Errorf("expected contact 0's setup_s to absorb the penalty, got %.3f", applied[0].SetupS)
	}
	if applied[1].SetupS != base[1].SetupS {
		t.Errorf("expected contact 1 to be unaffected, got %.3f", applied[1].SetupS)
	}
	// Base plan must never be mutated by Apply.
	if base[0].SetupS != 0.2 {
		t.Errorf("Apply mutated the base plan's setup_s: %.3f", base[0].SetupS)
	}
}

func TestWaitPenalty_ObserveSmoothsTowardNewValue(t *testing.T) {
	wp := NewWaitPenalty(0.3, 1.0)
	wp.Observe(0, 0, 10)
	first := wp.PenaltyFor(0)
	wp.Observe(0, 0, 10)
	second := wp.PenaltyFor(0)

	if second <= first {
		t.Errorf("expected the smoothed penalty to keep rising toward the observed wait, first=%.4f second=%.4f", first, second)
	}
	if second >= 10 {
		t.Errorf("expected the smoothed penalty to stay below the raw wait, got %.4f", second)
	}
}

func TestWaitPenalty_NegativeWaitClampedToZero(t *testing.T) {
	wp := NewWaitPenalty(0.5, 1.0)
	wp.Observe(0, 10, 4) // startTx before t0: wait is negative, clamp to 0

	if got := wp.PenaltyFor(0); got != 0 {
		t.Errorf("PenaltyFor(0) = %.3f, want 0", got)
	}
}

func TestWaitPenalty_ZeroLambdaNoOp(t *testing.T) {
	wp := NewWaitPenalty(0.5, 0)
	wp.Observe(0, 0, 10)

	base := Plan{{ID: 0, SetupS: 0.2}}
	applied := wp.Apply(base)
	if applied[0].SetupS != base[0].SetupS {
		t.Errorf("expected lambda=0 to leave setup_s unchanged, got %.3f", applied[0].SetupS)
	}
}

func TestWaitPenalty_AlphaLambdaClamped(t *testing.T) {
	wp := NewWaitPenalty(-1, -5)
	if wp.alpha != 0 {
		t.Errorf("expected alpha clamped to 0, got %.3f", wp.alpha)
	}
	if wp.lambda != 0 {
		t.Errorf("expected lambda clamped to 0, got %.3f", wp.lambda)
	}

	wp2 := NewWaitPenalty(2, 1)
	if wp2.alpha != 1 {
		t.Errorf("expected alpha clamped to 1, got %.3f", wp2.alpha)
	}
}

func TestWaitPenalty_PenaltyForUnobserved(t *testing.T) {
	wp := NewWaitPenalty(0.5, 1.0)
	if got := wp.PenaltyFor(99); got != 0 {
		t.Errorf("expected 0 for an unobserved contact, got %.3f", got)
	}
}

func TestWaitPenalty_NilReceiver(t *testing.T) {
	var wp *WaitPenalty
	if got := wp.PenaltyFor(0); got != 0 {
		t.Errorf("expected nil WaitPenalty.PenaltyFor to return 0, got %.3f", got)
	}
	base := Plan{{ID: 0, SetupS: 0.2}}
	applied := wp.Apply(base)
	if applied[0].SetupS != base[0].SetupS {
		t.Errorf("expected nil WaitPenalty.Apply to be a no-op clone, got %.3f", applied[0].SetupS)
	}
}
