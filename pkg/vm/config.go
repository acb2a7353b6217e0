package vm

import (
	"fmt"

	"github.com/mstoykov/envconfig"
)

// Config carries the object model's tunables. Zero values mean "use the
// default"; see DefaultConfig for the defaults.
type Config struct {
	// TransitionFanOutThreshold is the number of distinct transitions out
	// of a single shape past which new objects escape to dictionary mode
	// (the object-used-as-hash-map pattern).
	TransitionFanOutThreshold int `envconfig:"HERMES_TRANSITION_FAN_OUT_THRESHOLD" default:"32"`

	// InitialPropertyCapacity preallocates overflow slot storage for
	// objects created through NewObjectWithCapacity.
	InitialPropertyCapacity int `envconfig:"HERMES_INITIAL_PROPERTY_CAPACITY" default:"4"`

	// CacheMaxEntries is the number of shapes a property cache site tracks
	// before going megamorphic.
	CacheMaxEntries int `envconfig:"HERMES_CACHE_MAX_ENTRIES" default:"4"`

	// TraceShapes enables debug logging of shape registry activity
	// (dictionary conversions, bulk flag updates).
	TraceShapes bool `envconfig:"HERMES_TRACE_SHAPES" default:"false"`
}

// DefaultConfig returns the built-in defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		TransitionFanOutThreshold: 32,
		InitialPropertyCapacity:   4,
		CacheMaxEntries:           4,
		TraceShapes:               false,
	}
}

// LoadConfig builds a Config from the HERMES_* environment variables,
// falling back to the defaults for anything unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("reading object model config from environment: %w", err)
	}
	return cfg, nil
}
