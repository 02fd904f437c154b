package liveloop

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the collaborator-visible knobs of the live loop, loadable
// from an optional YAML file overlaid onto the defaults. cmd/cgrplan's
// -live mode uses the loaded Config as is; its command-line flags are not
// applied on top of it.
type Config struct {
	Src           int     `yaml:"src"`
	Dst           int     `yaml:"dst"`
	TickS         float64 `yaml:"tick_s"`
	PeriodS       float64 `yaml:"period_s"`
	AutoPeriod    bool    `yaml:"auto_period"`
	K             int     `yaml:"k"`
	BundleBytes   float64 `yaml:"bundle_bytes"`
	EnableConsume bool    `yaml:"enable_consume"`
	EnableEWMA    bool    `yaml:"enable_ewma"`
	Alpha         float64 `yaml:"alpha"`
	Lambda        float64 `yaml:"lambda"`

	// SnapshotSubject is the NATS subject live-loop snapshots are published
	// to when NATSURL is non-empty.
	NATSURL         string `yaml:"nats_url"`
	SnapshotSubject string `yaml:"snapshot_subject"`
}

// DefaultLiveLoopConfig returns the loop's defaults absent any YAML file or
// flag overrides.
func DefaultLiveLoopConfig() Config {
	return Config{
		Src:             0,
		Dst:             1,
		TickS:           10,
		AutoPeriod:      true,
		K:               3,
		BundleBytes:     5e7,
		EnableConsume:   false,
		EnableEWMA:      false,
		Alpha:           0.3,
		Lambda:          1.0,
		SnapshotSubject: "cgr.snapshots",
	}
}

// LoadConfig reads a YAML config file at path, overlaying its fields onto
// DefaultLiveLoopConfig. An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultLiveLoopConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TickDuration converts TickS to a time.Duration for the sleep between
// cycles.
func (c Config) TickDuration() time.Duration {
	return time.Duration(c.TickS * float64(time.Second))
}
