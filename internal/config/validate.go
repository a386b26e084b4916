// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate the configuration.
func Validate(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.Baud < 0 {
		return fmt.Errorf("baud %d out of range", cfg.Baud)
	}
	if len(cfg.Listeners) == 0 {
		return fmt.Errorf("no listeners defined")
	}

	for name, url := range cfg.Listeners {
		if name == "" {
			return fmt.Errorf("listener with empty name")
		}
		if url == "" {
			return fmt.Errorf("listener %q: empty stream URL", name)
		}
		scheme, rest, found := strings.Cut(url, "://")
		if !found {
			// Bare device path
			continue
		}
		switch scheme {
		case "serial", "tcp", "ws", "wss", "file":
		default:
			return fmt.Errorf("listener %q: unsupported scheme %q", name, scheme)
		}
		if rest == "" {
			return fmt.Errorf("listener %q: empty %s target", name, scheme)
		}
		if scheme == "tcp" && !strings.Contains(rest, ":") {
			return fmt.Errorf("listener %q: tcp target %q needs host:port", name, rest)
		}
	}
	return nil
}

// Normalize applies defaults after validation. It is allowed to
// mutate the configuration and MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Baud == 0 {
		cfg.Baud = 38400
	}
}
