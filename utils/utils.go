package utils

import (
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Address        string
	PollIntervalMs int
	MaxPlayers     int
	SnapshotEvery  int
	AntilagTicks   int
	// 0 seeds spawn positions from the clock.
	Seed int64
}

type ClientConfig struct {
	URL               string
	UserName          string
	CommandBufferSize int
	RemoteBufferSize  int
	TargetLatencyMs   int
	FrameRate         int
}

type SimulationConfig struct {
	TickRate      int
	MaxPacketSize int
}

type TransportConfig struct {
	SendQueueSize  int
	RecvQueueSize  int
	WriteTimeoutMs int
	ReadLimit      int64
	OriginPatterns []string
}

type Config struct {
	Server     ServerConfig
	Client     ClientConfig
	Simulation SimulationConfig
	Transport  TransportConfig
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        "localhost:4242",
			PollIntervalMs: 5,
			MaxPlayers:     8,
			SnapshotEvery:  2,
			AntilagTicks:   60,
		},
		Client: ClientConfig{
			URL:               "ws://localhost:4242",
			UserName:          "player",
			CommandBufferSize: 60,
			RemoteBufferSize:  30,
			TargetLatencyMs:   100,
			FrameRate:         144,
		},
		Simulation: SimulationConfig{
			TickRate:      60,
			MaxPacketSize: 1024,
		},
		Transport: TransportConfig{
			SendQueueSize:  256,
			RecvQueueSize:  1024,
			WriteTimeoutMs: 5000,
			ReadLimit:      64 * 1024,
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		},
	}
}

// ReadTOML loads fileName over the defaults; keys missing from the file keep
// their default value.
func ReadTOML(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("simulation tick rate must be positive, got %d", c.Simulation.TickRate)
	}
	if c.Server.PollIntervalMs <= 0 {
		return fmt.Errorf("server poll interval must be positive, got %d", c.Server.PollIntervalMs)
	}
	if c.Client.FrameRate <= 0 {
		return fmt.Errorf("client frame rate must be positive, got %d", c.Client.FrameRate)
	}
	return nil
}

func AlmostEqual(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}
