// SPDX-License-Identifier: Apache-2.0

// Package config loads the finitude YAML configuration file. The file
// names the HTTP listen port and the bus listeners to monitor:
//
//	port: 8000
//	listeners:
//	  main: /dev/ttyUSB0
//	  upstairs: tcp://rs485-bridge:2000
//
// Listener values are stream URLs: a bare path or serial:// for a
// local serial device, tcp:// for a raw socket bridge, ws:// or
// wss:// for a WebSocket bus tap, file:// for capture replay.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Port is the HTTP port the metrics endpoint listens on
	Port int `yaml:"port"`

	// Baud overrides the serial baud rate. The bus runs at 38400 and
	// this exists only for bench setups.
	Baud int `yaml:"baud"`

	// Listeners maps a listener name to its stream URL
	Listeners map[string]string `yaml:"listeners"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
