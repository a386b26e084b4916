// SPDX-License-Identifier: Apache-2.0

// Package stream opens the byte sources a listener can monitor: a
// local serial device, a raw TCP bridge, a WebSocket bus tap, or a
// recorded capture file. All sources present the same blocking
// io.ReadCloser surface to the ingestion pipeline.
package stream

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/shbatm/finitude/pkg/infinity"
)

// ErrDeviceUnavailable marks transient source failures: the device
// vanished, the bridge dropped, or reads timed out. Callers reconnect
// with backoff instead of failing.
var ErrDeviceUnavailable = errors.New("device unavailable")

// readTimeout bounds every blocking read so a removed device is
// detected instead of hanging the pipeline. The bus chatters
// constantly, so a quiet period this long means the stream is dead.
const readTimeout = 10 * time.Second

// Open opens the stream named by url. Bare paths and serial:// URLs
// open a serial device at the given baud rate; tcp://host:port dials a
// socket bridge; ws:// and wss:// attach to a WebSocket tap;
// file://path replays a capture. Returns the stream and a description
// for logging.
func Open(url string, baud int) (io.ReadCloser, string, error) {
	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		scheme, rest = "serial", url
	}
	switch scheme {
	case "serial":
		return openSerial(rest, baud)
	case "tcp":
		return openTCP(rest)
	case "ws", "wss":
		return openWebSocket(url)
	case "file":
		return openCapture(rest)
	default:
		return nil, "", fmt.Errorf("unsupported stream scheme %q", scheme)
	}
}

type serialConn struct {
	port serial.Port
}

func (s *serialConn) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if n == 0 {
		// Read timeout with no data
		return 0, fmt.Errorf("%w: no data within %s", ErrDeviceUnavailable, readTimeout)
	}
	return n, nil
}

func (s *serialConn) Close() error {
	return s.port.Close()
}

func openSerial(path string, baud int) (io.ReadCloser, string, error) {
	if baud == 0 {
		baud = infinity.DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, "", fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, path, err)
	}
	return &serialConn{port: port}, fmt.Sprintf("serial %s @ %d baud", path, baud), nil
}

type tcpConn struct {
	conn net.Conn
}

func (t *tcpConn) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	n, err := t.conn.Read(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return n, nil
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func openTCP(hostport string) (io.ReadCloser, string, error) {
	conn, err := net.DialTimeout("tcp", hostport, 10*time.Second)
	if err != nil {
		return nil, "", fmt.Errorf("%w: dial %s: %v", ErrDeviceUnavailable, hostport, err)
	}
	return &tcpConn{conn: conn}, "tcp " + hostport, nil
}

func openCapture(path string) (io.ReadCloser, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open capture %s: %w", path, err)
	}
	return &captureConn{f: f, r: infinity.NewCaptureReader(f)}, "capture " + path, nil
}

type captureConn struct {
	f *os.File
	r *infinity.CaptureReader
}

func (c *captureConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *captureConn) Close() error {
	return c.f.Close()
}
