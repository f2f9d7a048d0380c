// Package nvstore provides word-addressable non-volatile storage.
// Words are 32 bits wide and addressed by absolute index, the way the
// controller's EEPROM is. A word that was never written reads as Erased.
package nvstore

import (
	"errors"
	"fmt"
)

// Erased is the value of a word that has never been written.
const Erased uint32 = 0xFFFFFFFF

// Size is the number of addressable words.
const Size = 512

// ErrAddress is returned for addresses at or beyond Size.
var ErrAddress = errors.New("nvstore: address out of range")

// Store reads and writes single words synchronously.
type Store interface {
	// ReadWord returns the word at addr, or Erased if it was never written.
	ReadWord(addr uint16) (uint32, error)

	// WriteWord stores value at addr. The write is durable when it returns.
	WriteWord(addr uint16, value uint32) error

	// Close releases the underlying storage.
	Close() error
}

// BlockWriter is implemented by stores that can write consecutive words
// as a single durable update.
type BlockWriter interface {
	WriteWords(addr uint16, values []uint32) error
}

func checkRange(addr uint16, n int) error {
	if int(addr)+n > Size {
		return fmt.Errorf("%w: %d+%d", ErrAddress, addr, n)
	}
	return nil
}
