package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the memory-side timing of the bus.
type TimingConfig struct {
	// ReadLatency is the number of cycles between the read-address
	// handshake and the first read-data beat. Default: 4 cycles.
	ReadLatency uint64 `json:"read_latency"`

	// WriteLatency is the number of cycles between the last write-data
	// beat and the write response. Default: 2 cycles.
	WriteLatency uint64 `json:"write_latency"`

	// StallPercent is the chance, in percent, that the memory withholds
	// ready or valid on any channel in a given cycle. Default: 0.
	StallPercent int `json:"stall_percent"`

	// Seed seeds the stall generator so that runs are reproducible.
	Seed int64 `json:"seed"`

	// FreqGHz is the clock frequency the simulation engine ticks at.
	// Default: 1 GHz.
	FreqGHz float64 `json:"freq_ghz"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ReadLatency:  4,
		WriteLatency: 2,
		StallPercent: 0,
		Seed:         1,
		FreqGHz:      1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the timing values are usable.
func (c *TimingConfig) Validate() error {
	if c.StallPercent < 0 || c.StallPercent >= 100 {
		return fmt.Errorf("stall_percent must be in [0, 100)")
	}
	if c.FreqGHz <= 0 {
		return fmt.Errorf("freq_ghz must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	return &TimingConfig{
		ReadLatency:  c.ReadLatency,
		WriteLatency: c.WriteLatency,
		StallPercent: c.StallPercent,
		Seed:         c.Seed,
		FreqGHz:      c.FreqGHz,
	}
}
