// SPDX-License-Identifier: Apache-2.0
//
// Finitude - Carrier Infinity / Bryant Evolution bus monitor
//
// Listens to the RS-485 bus of a communicating HVAC system and
// exports runtime data from every device on the bus to Prometheus.

package main

import (
	"os"

	"github.com/shbatm/finitude/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
