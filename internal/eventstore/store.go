package eventstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/range-haptics/internal/nvstore"
)

var (
	// ErrIndexRange is returned for event indices outside 0..19.
	ErrIndexRange = errors.New("event index out of range")

	// ErrRuleKind is returned when a Simple rule is written to a compound
	// slot or the other way round.
	ErrRuleKind = errors.New("rule kind does not match event slot")
)

// Store reads and writes event records through a word store.
// Records are read and written whole under a lock, so a reader never
// observes a mix of old and new words.
type Store struct {
	mu sync.RWMutex
	nv nvstore.Store
}

// New returns a Store backed by nv.
func New(nv nvstore.Store) *Store {
	return &Store{nv: nv}
}

func base(index int) (uint16, error) {
	if index < 0 || index >= NumEvents {
		return 0, fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	return uint16(index * WordsPerEvent), nil
}

// Read returns the record at index.
func (s *Store) Read(index int) (Record, error) {
	addr, err := base(index)
	if err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(index, addr)
}

func (s *Store) read(index int, addr uint16) (Record, error) {
	var w [WordsPerEvent]uint32
	for i := range w {
		v, err := s.nv.ReadWord(addr + uint16(i))
		if err != nil {
			return Record{}, fmt.Errorf("read event %d: %w", index, err)
		}
		w[i] = v
	}
	return decode(index, w), nil
}

// Write stores all eight words of r at index.
func (s *Store) Write(index int, r Record) error {
	addr, err := base(index)
	if err != nil {
		return err
	}
	if err := checkKind(index, r.Rule); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(index, addr, r)
}

func (s *Store) write(index int, addr uint16, r Record) error {
	w := encode(r)
	if bw, ok := s.nv.(nvstore.BlockWriter); ok {
		if err := bw.WriteWords(addr, w[:]); err != nil {
			return fmt.Errorf("write event %d: %w", index, err)
		}
		return nil
	}
	for i, v := range w {
		if err := s.nv.WriteWord(addr+uint16(i), v); err != nil {
			return fmt.Errorf("write event %d: %w", index, err)
		}
	}
	return nil
}

func checkKind(index int, rule Rule) error {
	switch rule.(type) {
	case Simple:
		if IsCompound(index) {
			return fmt.Errorf("%w: simple rule at %d", ErrRuleKind, index)
		}
	case Compound:
		if !IsCompound(index) {
			return fmt.Errorf("%w: compound rule at %d", ErrRuleKind, index)
		}
	default:
		return fmt.Errorf("%w: %T", ErrRuleKind, rule)
	}
	return nil
}

// Erase disables the event at index by writing Disabled to word 0.
// The remaining words are left as they were.
func (s *Store) Erase(index int) error {
	addr, err := base(index)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nv.WriteWord(addr, Disabled); err != nil {
		return fmt.Errorf("erase event %d: %w", index, err)
	}
	return nil
}

// Update applies fn to the record at index and writes the result back as
// one record.
func (s *Store) Update(index int, fn func(*Record)) error {
	addr, err := base(index)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.read(index, addr)
	if err != nil {
		return err
	}
	fn(&r)
	if err := checkKind(index, r.Rule); err != nil {
		return err
	}
	return s.write(index, addr, r)
}

// SetHaptic turns playback for the event at index on or off.
func (s *Store) SetHaptic(index int, on bool) error {
	return s.Update(index, func(r *Record) {
		r.Pattern.Haptic = 0
		if on {
			r.Pattern.Haptic = 1
		}
	})
}

// SetPattern replaces the beat count, timing and duty of the event at
// index. The haptic flag is kept.
func (s *Store) SetPattern(index int, p Pattern) error {
	return s.Update(index, func(r *Record) {
		p.Haptic = r.Pattern.Haptic
		r.Pattern = p
	})
}

// All returns every record in index order.
func (s *Store) All() ([NumEvents]Record, error) {
	var out [NumEvents]Record
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range out {
		r, err := s.read(i, uint16(i*WordsPerEvent))
		if err != nil {
			return out, err
		}
		out[i] = r
	}
	return out, nil
}
