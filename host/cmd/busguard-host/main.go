package main

import (
	"flag"
	"fmt"
	"os"

	"busguard/core"
	"busguard/host/config"
	"busguard/host/serial"
	"busguard/protocol"
)

var (
	device     = flag.String("device", "/dev/ttyUSB0", "Serial device path of the shared line")
	baud       = flag.Int("baud", 0, "Baud rate (overrides the config file)")
	configPath = flag.String("config", "", "JSON line configuration (nodes, timeouts)")
	rounds     = flag.Int("rounds", 1, "Number of polling rounds over all nodes")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	trace      = flag.Bool("trace", false, "Capture gate events and dump them on exit")
)

// polledNode pairs a node driver with its configuration
type polledNode struct {
	cfg  config.NodeConfig
	node *protocol.Node
}

func main() {
	flag.Parse()

	fmt.Println("Busguard Host - shared multidrop line poller")
	fmt.Println("============================================")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	core.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
	core.SetDebugEnabled(*verbose)
	core.SetTraceEnabled(*trace)
	core.SetFatalHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(2)
	})

	fmt.Printf("Opening %s at %d baud...\n", cfg.Device, cfg.Baud)
	port, err := serial.Open(cfg.SerialConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	// One gate owns the line; every node driver gets its own proxy
	gate := core.NewNamed(cfg.Device, port)
	nodes := make([]polledNode, 0, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		node := protocol.NewNode(core.UART(gate.Acquire()), nc.Address)
		node.PollBudget = nc.PollBudget
		nodes = append(nodes, polledNode{cfg: nc, node: node})
	}

	failures := 0
	for round := 1; round <= *rounds; round++ {
		if *rounds > 1 {
			fmt.Printf("Round %d:\n", round)
		}
		failures += pollAll(nodes)
	}

	stats := gate.Stats()
	fmt.Printf("\nGate %s: %d transactions, %d bus errors\n", gate.Name(), stats.Transactions, stats.BusErrors)
	if *trace {
		core.DumpTraceRing()
	}

	if failures > 0 {
		os.Exit(1)
	}
}

// loadConfig reads the config file if given and applies flag overrides
func loadConfig() (*config.LineConfig, error) {
	var cfg *config.LineConfig
	if *configPath == "" {
		cfg = config.DefaultLineConfig(*device)
	} else {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		cfg, err = config.LoadConfig(data)
		if err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", *configPath, err)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *device
		case "baud":
			cfg.Baud = *baud
		}
	})
	if cfg.Device == "" {
		cfg.Device = *device
	}

	return cfg, nil
}

// pollAll sends each node its request in turn and returns the failure count.
// Nodes are polled sequentially from this goroutine only, which is the
// serialization the gate expects.
func pollAll(nodes []polledNode) int {
	failures := 0
	for _, n := range nodes {
		reply, err := n.node.Request([]byte(n.cfg.Payload))
		if err != nil {
			fmt.Printf("  %-12s 0x%02X  error: %v\n", n.cfg.Name, n.cfg.Address, err)
			failures++
			continue
		}
		fmt.Printf("  %-12s 0x%02X  %q\n", n.cfg.Name, n.cfg.Address, reply)
		core.DebugPrintln(fmt.Sprintf("[HOST] %s replied with %d bytes", n.cfg.Name, len(reply)))
	}
	return failures
}
