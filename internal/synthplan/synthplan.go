// Package synthplan generates a synthetic contact plan for demos and smoke
// tests, standing in for a real ephemeris feed. It replays a fixed number of
// ground-station/satellite pass pairs every orbital period, deriving each
// pass's rate and one-way light time from a triangular elevation profile
// instead of true TLE/SGP4 propagation.
package synthplan

import (
	"fmt"
	"math"

	"github.com/asgard/cgr/internal/cgr"
)

// Config controls synthetic plan generation.
type Config struct {
	GroundStations  int
	Satellites      int
	PeriodS         float64 // orbital repetition length
	PassesPerSat    int     // passes of each satellite over each ground station, per period
	PassDurationS   float64
	SetupS          float64
	ResidualBytes   float64
	MinRateBPS      float64 // rate at the weakest (horizon) pass
	MaxRateBPS      float64 // rate at the strongest (overhead) pass
	MinOWLT         float64 // light time at closest approach
	MaxOWLT         float64 // light time at horizon
	PeriodsToEmit   int     // how many repetitions of the period to materialize up front
}

// DefaultConfig returns a small LEO-like constellation: two ground stations,
// three satellites, a 90-minute period, three passes per satellite per
// ground station per period.
func DefaultConfig() Config {
	return Config{
		GroundStations: 2,
		Satellites:     3,
		PeriodS:        5400,
		PassesPerSat:   3,
		PassDurationS:  420,
		SetupS:         2,
		ResidualBytes:  2e9,
		MinRateBPS:     2e6,
		MaxRateBPS:     5e7,
		MinOWLT:        0.01,
		MaxOWLT:        0.04,
		PeriodsToEmit:  2,
	}
}

// Generate builds a plan covering cfg.PeriodsToEmit repetitions of the base
// period, starting at t=0. Ground stations occupy node ids [0,
// GroundStations), satellites occupy [GroundStations, GroundStations+
// Satellites). Each pass yields one bidirectional pair of contacts (uplink
// and downlink), so ids increase by two per pass.
func Generate(cfg Config) cgr.Plan {
	cfg = withDefaults(cfg)

	var plan cgr.Plan
	nextID := 0
	passInterval := cfg.PeriodS / float64(cfg.PassesPerSat)

	for rep := 0; rep < cfg.PeriodsToEmit; rep++ {
		periodOffset := float64(rep) * cfg.PeriodS

		for sat := 0; sat < cfg.Satellites; sat++ {
			satNode := cfg.GroundStations + sat

			for gs := 0; gs < cfg.GroundStations; gs++ {
				for pass := 0; pass < cfg.PassesPerSat; pass++ {
					quality := passQuality(sat, gs, pass)
					tStart := periodOffset + float64(pass)*passInterval + passPhase(sat, gs)
					tEnd := tStart + cfg.PassDurationS

					rate := cfg.MinRateBPS + quality*(cfg.MaxRateBPS-cfg.MinRateBPS)
					owlt := cfg.MaxOWLT - quality*(cfg.MaxOWLT-cfg.MinOWLT)

					plan = append(plan,
						cgr.Contact{
							ID: nextID, From: gs, To: satNode,
							TStart: tStart, TEnd: tEnd, OWLT: owlt,
							RateBPS: rate, SetupS: cfg.SetupS, ResidualBytes: cfg.ResidualBytes,
						},
						cgr.Contact{
							ID: nextID + 1, From: satNode, To: gs,
							TStart: tStart, TEnd: tEnd, OWLT: owlt,
							RateBPS: rate, SetupS: cfg.SetupS, ResidualBytes: cfg.ResidualBytes,
						},
					)
					nextID += 2
				}
			}
		}
	}

	return plan
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.GroundStations <= 0 {
		cfg.GroundStations = d.GroundStations
	}
	if cfg.Satellites <= 0 {
		cfg.Satellites = d.Satellites
	}
	if cfg.PeriodS <= 0 {
		cfg.PeriodS = d.PeriodS
	}
	if cfg.PassesPerSat <= 0 {
		cfg.PassesPerSat = d.PassesPerSat
	}
	if cfg.PassDurationS <= 0 {
		cfg.PassDurationS = d.PassDurationS
	}
	if cfg.ResidualBytes <= 0 {
		cfg.ResidualBytes = d.ResidualBytes
	}
	if cfg.MaxRateBPS <= 0 {
		cfg.MaxRateBPS = d.MaxRateBPS
	}
	if cfg.MinRateBPS <= 0 {
		cfg.MinRateBPS = d.MinRateBPS
	}
	if cfg.MaxOWLT <= 0 {
		cfg.MaxOWLT = d.MaxOWLT
	}
	if cfg.MinOWLT <= 0 {
		cfg.MinOWLT = d.MinOWLT
	}
	if cfg.PeriodsToEmit <= 0 {
		cfg.PeriodsToEmit = d.PeriodsToEmit
	}
	return cfg
}

// passQuality derives a deterministic stand-in for max elevation during a
// pass, in [0.1, 1.0], that varies by satellite/ground-station geometry and
// by which pass in the period this is (successive passes of a real LEO
// satellite don't repeat the same ground track).
func passQuality(sat, gs, pass int) float64 {
	phase := float64((sat*7+gs*3+pass*11)%13) / 12.0
	return 0.1 + 0.9*triangular(phase)
}

// triangular maps phase in [0,1] to a triangular profile peaking at the
// midpoint, modeling a satellite rising from and setting to the horizon.
func triangular(phase float64) float64 {
	return 1 - math.Abs(2*phase-1)
}

// passPhase staggers the start of each ground station's view of a
// satellite's pass so passes at different stations don't coincide exactly.
func passPhase(sat, gs int) float64 {
	return float64((sat*17+gs*31)%97) / 97.0 * 30
}

// LinkType classifies a quality value for operator-facing logs, mirroring
// the coarse link-quality buckets an uplink planner cares about.
func LinkType(quality float64) string {
	switch {
	case quality >= 0.75:
		return "overhead"
	case quality >= 0.4:
		return "mid-pass"
	default:
		return "horizon"
	}
}

func (c Config) String() string {
	return fmt.Sprintf("synthplan[gs=%d sat=%d period=%.0fs passes/sat=%d]",
		c.GroundStations, c.Satellites, c.PeriodS, c.PassesPerSat)
}
