// Package liveloop drives the cooperative simulated-clock loop described in
// spec §4.I: each tick periodizes the base plan, searches for a best route
// and K alternatives, emits a snapshot, and optionally feeds back capacity
// consumption and/or EWMA wait-penalty learning before sleeping and
// advancing the clock.
package liveloop

import (
	"context"
	"encoding/json"
	"math"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/asgard/cgr/internal/cgr"
	"github.com/asgard/cgr/internal/platform/observability"
	"github.com/asgard/cgr/internal/utils"
)

// Snapshot is the per-tick observation emitted in step 4 of the loop.
type Snapshot struct {
	ClockS         float64     `json:"clock_s"`
	Found          bool        `json:"found"`
	Hops           int         `json:"hops"`
	ETA            float64     `json:"eta,omitempty"`
	ContactID      []int       `json:"contact_ids,omitempty"`
	Alternatives   int         `json:"alternatives"`
	ActiveContacts int         `json:"active_contacts"`
	OrbitalPhase   float64     `json:"orbital_phase"`
}

// Loop holds all state for one run of the live loop. It owns its working
// plan, index, and route buffers for the duration of a single tick only;
// nothing survives across ticks except the clock, the base plan, and (if
// enabled) the EWMA penalty map.
type Loop struct {
	basePlan cgr.Plan
	cfg      Config
	period   float64
	clock    float64
	stopped  atomic.Bool
	penalty  *cgr.WaitPenalty
	logger   *utils.Logger
	nc       *nats.Conn
	tracer   trace.Tracer
}

// NewLoop constructs a Loop over basePlan with the given configuration. If
// cfg.AutoPeriod is set (or no explicit period is given), the period is
// inferred from basePlan's temporal span. If cfg.NATSURL is set, a
// best-effort NATS connection is opened for snapshot fan-out; a failed
// connection is logged and the loop proceeds without it.
func NewLoop(basePlan cgr.Plan, cfg Config, logger *utils.Logger) *Loop {
	period := cfg.PeriodS
	if cfg.AutoPeriod || period <= 0 {
		period = cgr.InferPeriod(basePlan)
	}

	var penalty *cgr.WaitPenalty
	if cfg.EnableEWMA {
		penalty = cgr.NewWaitPenalty(cfg.Alpha, cfg.Lambda)
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn("liveloop: NATS connect to %s failed, snapshots will not be published: %v", cfg.NATSURL, err)
		} else {
			nc = conn
		}
	}

	return &Loop{
		basePlan: basePlan,
		cfg:      cfg,
		period:   period,
		logger:   logger,
		nc:       nc,
		tracer:   otel.Tracer("cgr/liveloop"),
	}
}

// Stop requests termination before the next tick begins. A tick already in
// progress runs to completion.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

// Run executes ticks until Stop is called or ctx is cancelled, sleeping
// cfg.TickDuration() between ticks.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		if l.nc != nil {
			l.nc.Close()
		}
	}()

	for !l.stopped.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.TickDuration()):
		}

		l.clock += l.cfg.TickS
	}
}

func (l *Loop) tick(ctx context.Context) {
	ctx, span := l.tracer.Start(ctx, "liveloop.tick")
	defer span.End()

	// Step 1: periodize, step 5a (EWMA) applied to this tick's copy only.
	working := l.periodizedPlan()
	if l.penalty != nil {
		working = l.penalty.Apply(working)
	}

	// Step 2: neighbor index.
	idx := cgr.BuildNeighborIndex(working)

	req := cgr.RouteRequest{
		Src:         l.cfg.Src,
		Dst:         l.cfg.Dst,
		T0:          l.clock,
		BundleBytes: l.cfg.BundleBytes,
	}

	// Step 3: best route and K alternatives.
	searchStart := time.Now()
	best, err := cgr.FindRoute(working, idx, req, cgr.Filters{})
	observability.RecordSearch("dijkstra", time.Since(searchStart), best.Found)
	if err != nil {
		l.logger.Error("liveloop: tick at clock=%.3f failed: %v", l.clock, err)
		span.SetAttributes(attribute.Bool("cgr.error", true))
		return
	}

	var alternatives []cgr.Route
	if best.Found && l.cfg.K > 1 {
		yenStart := time.Now()
		alternatives, _ = cgr.KYenRoutes(working, idx, req, cgr.Filters{}, l.cfg.K)
		observability.RecordSearch("kyen", time.Since(yenStart), len(alternatives) > 0)
	}
	observability.RecordLiveLoopTick(countActive(working, l.clock))

	span.SetAttributes(
		attribute.Int("cgr.src", l.cfg.Src),
		attribute.Int("cgr.dst", l.cfg.Dst),
		attribute.Bool("cgr.found", best.Found),
		attribute.Int("cgr.hops", best.Hops),
	)

	// Step 4: emit snapshot.
	l.emitSnapshot(best, alternatives, working)

	// Step 5b: consumption feedback on the base plan, carried into future ticks.
	if best.Found && l.cfg.EnableConsume {
		consumeByID(l.basePlan, best.ContactID, l.cfg.BundleBytes)
	}

	// Step 5c: EWMA observation from this tick's first hop.
	if best.Found && l.penalty != nil && len(best.ContactID) > 0 {
		firstID := best.ContactID[0]
		if c, ok := findContactByID(working, firstID); ok {
			startTx := math.Max(l.clock, c.TStart)
			l.penalty.Observe(firstID, l.clock, startTx)
		}
	}
}

func (l *Loop) periodizedPlan() cgr.Plan {
	if l.period <= 0 {
		return l.basePlan.Clone()
	}
	return cgr.Periodize(l.basePlan, l.clock, l.period)
}

func (l *Loop) emitSnapshot(best cgr.Route, alternatives []cgr.Route, working cgr.Plan) {
	snap := Snapshot{
		ClockS:         l.clock,
		Found:          best.Found,
		Hops:           best.Hops,
		ContactID:      best.ContactID,
		Alternatives:   len(alternatives),
		ActiveContacts: countActive(working, l.clock),
		OrbitalPhase:   orbitalPhase(l.clock, l.period),
	}
	if best.Found {
		snap.ETA = best.ETA
	}

	l.logger.Info("liveloop: clock=%.3f found=%v hops=%d active=%d phase=%.4f",
		snap.ClockS, snap.Found, snap.Hops, snap.ActiveContacts, snap.OrbitalPhase)

	if l.nc == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		l.logger.Warn("liveloop: snapshot marshal failed: %v", err)
		return
	}
	if err := l.nc.Publish(l.cfg.SnapshotSubject, payload); err != nil {
		l.logger.Warn("liveloop: snapshot publish failed: %v", err)
	}
}

func countActive(plan cgr.Plan, clock float64) int {
	n := 0
	for _, c := range plan {
		if c.TStart <= clock && clock <= c.TEnd {
			n++
		}
	}
	return n
}

func orbitalPhase(clock, period float64) float64 {
	if period <= 0 {
		return 0
	}
	return math.Mod(clock, period) / period
}

func findContactByID(plan cgr.Plan, id int) (cgr.Contact, bool) {
	for _, c := range plan {
		if c.ID == id {
			return c, true
		}
	}
	return cgr.Contact{}, false
}

func consumeByID(plan cgr.Plan, ids []int, bundleBytes float64) {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i, c := range plan {
		if _, ok := want[c.ID]; !ok {
			continue
		}
		residual := c.ResidualBytes - bundleBytes
		if residual < 0 {
			residual = 0
		}
		plan[i].ResidualBytes = residual
	}
}
