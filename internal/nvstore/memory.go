package nvstore

import "sync"

// Memory is an in-process Store for tests. Its contents are lost on exit.
type Memory struct {
	mu    sync.Mutex
	words [Size]uint32

	// Writes counts WriteWord calls (a block write counts each word).
	Writes int

	// WriteError, if set, is returned by WriteWord and WriteWords.
	WriteError error

	// ReadError, if set, is returned by ReadWord.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewMemory returns a Memory store with every word erased.
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.words {
		m.words[i] = Erased
	}
	return m
}

// ReadWord returns the word at addr.
func (m *Memory) ReadWord(addr uint16) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if err := checkRange(addr, 1); err != nil {
		return 0, err
	}
	return m.words[addr], nil
}

// WriteWord stores value at addr.
func (m *Memory) WriteWord(addr uint16, value uint32) error {
	return m.WriteWords(addr, []uint32{value})
}

// WriteWords stores values starting at addr. Either all words are written
// or none are.
func (m *Memory) WriteWords(addr uint16, values []uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	if err := checkRange(addr, len(values)); err != nil {
		return err
	}
	copy(m.words[addr:], values)
	m.Writes += len(values)
	return nil
}

// Close marks the store as closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}
