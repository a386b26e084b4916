// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/shbatm/finitude/pkg/infinity"
)

var (
	statsInterval int
	useTUI        bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Track frame statistics and error rates",
	Long: `Decode the stream and track statistics: frame and error rates, CRC
rejections, desynchronizations, malformed payloads, and unknown
function codes or registers.

The default terminal UI shows live statistics alongside the devices
seen on the bus. Use --tui=false for plain periodic text summaries.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	statsCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runStats(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openStream()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runStatsTUI(conn, connInfo)
	}
	return runStatsText(conn, connInfo)
}

func runStatsText(conn io.ReadCloser, connInfo string) error {
	fmt.Printf("Finitude - Bus Statistics\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := infinity.NewStatistics()
	sync := infinity.NewSynchronizer(conn)
	sync.OnDesync = func() { stats.Desyncs++ }
	sync.OnChecksumError = func() { stats.ChecksumErrors++ }
	dec := infinity.NewDecoder()

	lastReport := time.Now()
	interval := time.Duration(statsInterval) * time.Second

	for {
		frame, err := sync.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				stats.CalculateRates()
				fmt.Printf("\nFinal: %s\n", stats)
				return nil
			}
			return err
		}
		msg, decodeErr := dec.Decode(frame)
		stats.Update(msg, decodeErr)

		if time.Since(lastReport) >= interval {
			stats.CalculateRates()
			fmt.Printf("%s\n", stats)
			lastReport = time.Now()
		}
	}
}
