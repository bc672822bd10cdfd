package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config defines the tuning parameters of a memory engine. It is passed
// explicitly at construction so multiple sessions can run different policies
// without interference; nothing is read from ambient process state.
type Config struct {
	// DecayRate is the exponential decay constant per logical tick.
	DecayRate float64 `yaml:"decay_rate"`

	// MaxMemoryItems bounds every entity's local memory. Must be positive;
	// a non-positive value surfaces as a CapacityError at runtime.
	MaxMemoryItems int `yaml:"max_memory_items"`

	// ImportanceCeiling caps importance, both at ingestion and through
	// reinforcement.
	ImportanceCeiling int `yaml:"importance_ceiling"`

	// ImportanceThreshold protects records at or above it from eviction
	// while less important candidates remain.
	ImportanceThreshold int `yaml:"importance_threshold"`

	// SummaryInterval triggers summarization every N processed events.
	// Zero disables summarization.
	SummaryInterval int `yaml:"summary_interval"`

	// RelevanceFloor marks records below it as summarization candidates.
	RelevanceFloor float64 `yaml:"relevance_floor"`

	// GlobalCountThreshold forces summarization of the oldest global
	// records once the store outgrows it, even if nothing has faded yet.
	GlobalCountThreshold int `yaml:"global_count_threshold"`

	// LocalTailSize caps how many faded records each local store
	// contributes to a summarization batch.
	LocalTailSize int `yaml:"local_tail_size"`

	// MinGlobalImportance is the importance an interaction needs before it
	// is also recorded in world memory.
	MinGlobalImportance int `yaml:"min_global_importance"`
}

// DefaultConfig provides working defaults for a mid-sized session: week-long
// play at one action per tick stays bounded without aggressive forgetting.
var DefaultConfig = Config{
	DecayRate:            0.1,
	MaxMemoryItems:       100,
	ImportanceCeiling:    10,
	ImportanceThreshold:  8,
	SummaryInterval:      25,
	RelevanceFloor:       0.2,
	GlobalCountThreshold: 200,
	LocalTailSize:        5,
	MinGlobalImportance:  4,
}

// Validate reports configuration that cannot work at runtime.
func (c Config) Validate() error {
	if c.MaxMemoryItems <= 0 {
		return fmt.Errorf("max_memory_items must be positive, got %d", c.MaxMemoryItems)
	}
	if c.DecayRate <= 0 {
		return fmt.Errorf("decay_rate must be positive, got %g", c.DecayRate)
	}
	if c.ImportanceCeiling < 2 {
		return fmt.Errorf("importance_ceiling must be at least 2, got %d", c.ImportanceCeiling)
	}
	if c.SummaryInterval < 0 {
		return fmt.Errorf("summary_interval must not be negative, got %d", c.SummaryInterval)
	}
	if c.RelevanceFloor < 0 || c.RelevanceFloor > 1 {
		return fmt.Errorf("relevance_floor must be in [0,1], got %g", c.RelevanceFloor)
	}
	return nil
}

// LoadConfig reads a yaml config file layered over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
