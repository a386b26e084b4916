// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/shbatm/finitude/pkg/infinity"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded bus frames in human-readable format",
	Long: `Continuously decode and display bus frames as they arrive.

Each frame is shown with its timestamp, source and destination
addresses, function code, and decoded register fields where the
register layout is known. Unknown payloads are hex dumped.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openStream()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Finitude - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	sync := infinity.NewSynchronizer(conn)
	sync.OnDesync = func() {
		log.Printf("desynchronized, scanning for next frame")
	}
	dec := infinity.NewDecoder()

	for {
		frame, err := sync.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Printf("End of capture")
				return nil
			}
			return err
		}
		msg, err := dec.Decode(frame)
		if err != nil {
			fmt.Printf("%s\n  [dropped] %v\n", infinity.FormatFrame(frame), err)
			continue
		}
		fmt.Print(infinity.FormatMessage(frame, msg))
	}
}
