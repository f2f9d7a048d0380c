package console

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaud matches the controller's UART: 115200 8N1.
const DefaultBaud = 115200

// Open returns the command transport named by port. "-" or "" selects
// stdin/stdout; anything else is a serial device path.
func Open(port string, baud int) (io.ReadWriteCloser, error) {
	if port == "" || port == "-" {
		return stdio{}, nil
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(strings.TrimPrefix(port, "serial:"), mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return p, nil
}

// stdio is the console on the process's own terminal.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }

// Pump reads r on its own goroutine and delivers each byte on the
// returned channel. The channel is closed when r reports EOF or an error.
func Pump(r io.Reader) <-chan byte {
	out := make(chan byte, 256)
	go func() {
		defer close(out)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				out <- b
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Printf("console: read: %v", err)
				}
				return
			}
		}
	}()
	return out
}
