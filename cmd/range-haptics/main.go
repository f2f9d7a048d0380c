// Command range-haptics reads three ultrasonic range sensors, evaluates
// the stored distance events and plays the haptic pattern of the highest
// priority event that is true.
package main

import (
	"errors"
	"log"
	"os"
	"syscall"

	"github.com/sweeney/range-haptics/internal/console"
)

func main() {
	err := newRootCommand().Execute()
	if errors.Is(err, console.ErrReboot) {
		err = reexec()
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// reexec replaces the process with a fresh copy of itself. All hardware
// has been released by the time run returns.
func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	log.Printf("rebooting: exec %s", exe)
	return syscall.Exec(exe, os.Args, os.Environ())
}
