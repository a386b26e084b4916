// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Stream flags shared by the diagnostic commands
	portName  string
	baudRate  int
	streamURL string
)

var rootCmd = &cobra.Command{
	Use:   "finitude",
	Short: "Carrier Infinity HVAC bus monitor",
	Long: `Finitude - a monitor for the RS-485 bus of Carrier Infinity and
Bryant Evolution communicating HVAC systems.

The serve command listens to one or more bus streams and exports the
runtime state of every device on the bus (temperatures, setpoints,
blower speed, fault codes) as Prometheus metrics. Prometheus can query
very often because finitude constantly listens to the bus and only
serves its internal state.

The remaining commands are diagnostics that read a single stream:

  Serial:    --port /dev/ttyUSB0 [--baud 38400]
  Remote:    --url tcp://host:port or ws://host/path
  Replay:    --url file://capture.cbor

For WebSocket taps, put credentials in the URL userinfo; a username
without a password falls back to the FINITUDE_PASSWORD environment
variable so secrets stay out of shell history.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 38400, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVarP(&streamURL, "url", "u", "", "Stream URL (serial://, tcp://, ws://, wss://, file://)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
