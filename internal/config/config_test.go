// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finitude.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
port: 9000
listeners:
  main: /dev/ttyUSB0
  upstairs: tcp://rs485-bridge:2000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Port)
	}
	if cfg.Listeners["main"] != "/dev/ttyUSB0" {
		t.Errorf("main listener = %q", cfg.Listeners["main"])
	}
	if cfg.Listeners["upstairs"] != "tcp://rs485-bridge:2000" {
		t.Errorf("upstairs listener = %q", cfg.Listeners["upstairs"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "port: [not a number\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	listeners := func(urls ...string) map[string]string {
		m := make(map[string]string)
		for i, u := range urls {
			m[string(rune('a'+i))] = u
		}
		return m
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "bare device path",
			cfg:  Config{Listeners: listeners("/dev/ttyUSB0")},
		},
		{
			name: "all schemes",
			cfg: Config{Listeners: listeners(
				"serial:///dev/ttyUSB1",
				"tcp://bridge:2000",
				"ws://host/api/ws",
				"wss://user:pw@host/api/ws",
				"file://capture.cbor",
			)},
		},
		{
			name:    "no listeners",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "empty URL",
			cfg:     Config{Listeners: listeners("")},
			wantErr: true,
		},
		{
			name:    "unknown scheme",
			cfg:     Config{Listeners: listeners("gopher://x")},
			wantErr: true,
		},
		{
			name:    "empty scheme target",
			cfg:     Config{Listeners: listeners("tcp://")},
			wantErr: true,
		},
		{
			name:    "tcp without port",
			cfg:     Config{Listeners: listeners("tcp://bridge")},
			wantErr: true,
		},
		{
			name:    "port out of range",
			cfg:     Config{Port: 70000, Listeners: listeners("/dev/ttyUSB0")},
			wantErr: true,
		},
		{
			name:    "negative baud",
			cfg:     Config{Baud: -1, Listeners: listeners("/dev/ttyUSB0")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_EmptyListenerName(t *testing.T) {
	cfg := Config{Listeners: map[string]string{"": "/dev/ttyUSB0"}}
	if err := Validate(&cfg); err == nil {
		t.Fatal("expected an error for an empty listener name")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := Config{Listeners: map[string]string{"main": "/dev/ttyUSB0"}}
	Normalize(&cfg)
	if cfg.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Port)
	}
	if cfg.Baud != 38400 {
		t.Errorf("default baud = %d, want 38400", cfg.Baud)
	}
}

func TestNormalize_PreservesExplicitValues(t *testing.T) {
	cfg := Config{Port: 9000, Baud: 19200}
	Normalize(&cfg)
	if cfg.Port != 9000 || cfg.Baud != 19200 {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}
