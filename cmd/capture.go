// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shbatm/finitude/pkg/infinity"
)

var (
	captureOutput string
	captureCount  int
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record validated bus frames to a capture file",
	Long: `Record every checksum-validated frame to a CBOR capture file.

Captures replay through any command that accepts --url file://path,
so decoding problems seen in the field can be reproduced offline
against the exact recorded traffic.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "bus-capture.cbor", "Capture file to write")
	captureCmd.Flags().IntVarP(&captureCount, "count", "n", 0, "Stop after this many frames (0 = until interrupted)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openStream()
	if err != nil {
		return err
	}
	defer conn.Close()

	out, err := os.Create(captureOutput)
	if err != nil {
		return fmt.Errorf("create capture file: %w", err)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Printf("Finitude - Bus Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Writing to %s, press Ctrl+C to stop\n\n", captureOutput)

	w := infinity.NewCaptureWriter(out)
	sync := infinity.NewSynchronizer(conn)

	frames := 0
	for {
		frame, err := sync.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := w.WriteFrame(frame); err != nil {
			return fmt.Errorf("write capture: %w", err)
		}
		frames++
		if frames%100 == 0 {
			fmt.Printf("  %d frames\n", frames)
		}
		if captureCount > 0 && frames >= captureCount {
			break
		}
	}

	fmt.Printf("\nCaptured %d frames to %s\n", frames, captureOutput)
	return nil
}
