package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"busguard/host/serial"
	"busguard/protocol"
)

var (
	ErrNoNodes          = errors.New("no nodes configured")
	ErrDuplicateAddress = errors.New("duplicate node address")
	ErrReservedAddress  = errors.New("broadcast address cannot be assigned to a node")
	ErrBadPollBudget    = errors.New("poll budget cannot be negative")
)

// NodeConfig describes one device on the shared line
type NodeConfig struct {
	Name       string `json:"name"`
	Address    uint8  `json:"address"`
	Payload    string `json:"payload"`     // Request sent when the node is polled
	PollBudget int    `json:"poll_budget"` // Reply polls before giving up
}

// LineConfig describes a multidrop serial line and the nodes sharing it
type LineConfig struct {
	Device        string       `json:"device"`
	Baud          int          `json:"baud"`
	ReadTimeoutMS int          `json:"read_timeout_ms"`
	Nodes         []NodeConfig `json:"nodes"`
}

// LoadConfig parses a JSON configuration string and returns a LineConfig
func LoadConfig(jsonData []byte) (*LineConfig, error) {
	var config LineConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *LineConfig) {
	defaults := serial.DefaultConfig(config.Device)

	if config.Baud == 0 {
		config.Baud = defaults.Baud
	}
	if config.ReadTimeoutMS == 0 {
		config.ReadTimeoutMS = defaults.ReadTimeout
	}

	for i := range config.Nodes {
		node := &config.Nodes[i]
		if node.Name == "" {
			node.Name = fmt.Sprintf("node%d", node.Address)
		}
		if node.Payload == "" {
			node.Payload = "status"
		}
		if node.PollBudget == 0 {
			node.PollBudget = protocol.DefaultPollBudget
		}
	}
}

func validate(config *LineConfig) error {
	if len(config.Nodes) == 0 {
		return ErrNoNodes
	}

	seen := make(map[uint8]string, len(config.Nodes))
	for _, node := range config.Nodes {
		if node.Address == protocol.BroadcastAddress {
			return fmt.Errorf("node %s: %w", node.Name, ErrReservedAddress)
		}
		if other, exists := seen[node.Address]; exists {
			return fmt.Errorf("nodes %s and %s at 0x%02X: %w", other, node.Name, node.Address, ErrDuplicateAddress)
		}
		seen[node.Address] = node.Name
		if node.PollBudget < 0 {
			return fmt.Errorf("node %s: %w", node.Name, ErrBadPollBudget)
		}
		if len(node.Payload) > protocol.FramePayloadMax {
			return fmt.Errorf("node %s: %w", node.Name, protocol.ErrFrameTooLarge)
		}
	}
	return nil
}

// SerialConfig returns the serial port settings for the line
func (c *LineConfig) SerialConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeoutMS,
	}
}

// DefaultLineConfig returns a single-node configuration on device
func DefaultLineConfig(device string) *LineConfig {
	config := &LineConfig{
		Device: device,
		Nodes: []NodeConfig{
			{Name: "node1", Address: 0x01},
		},
	}
	applyDefaults(config)
	return config
}
