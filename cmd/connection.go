// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/shbatm/finitude/internal/stream"
)

// openStream opens the bus stream selected by the --port / --url
// flags for the diagnostic commands
func openStream() (io.ReadCloser, string, error) {
	if streamURL != "" {
		if err := promptWebSocketPassword(streamURL); err != nil {
			return nil, "", err
		}
		return stream.Open(streamURL, baudRate)
	}
	if portName != "" {
		return stream.Open(portName, baudRate)
	}
	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// promptWebSocketPassword prompts for a WebSocket password when the
// URL names a user but no password and FINITUDE_PASSWORD is unset.
// The prompt hides input; secrets never appear on the command line.
func promptWebSocketPassword(rawURL string) error {
	if !strings.HasPrefix(rawURL, "ws://") && !strings.HasPrefix(rawURL, "wss://") {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil || u.User.Username() == "" {
		return nil
	}
	if _, ok := u.User.Password(); ok {
		return nil
	}
	if os.Getenv("FINITUDE_PASSWORD") != "" {
		return nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return os.Setenv("FINITUDE_PASSWORD", strings.TrimSpace(password))
	}
	fmt.Fprintln(os.Stderr)
	return os.Setenv("FINITUDE_PASSWORD", string(passwordBytes))
}
