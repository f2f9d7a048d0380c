package eventstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/range-haptics/internal/nvstore"
)

// wordStore hides the BlockWriter of Memory so the word-by-word path is used.
type wordStore struct {
	nvstore.Store
}

func TestWriteReadRoundTrip(t *testing.T) {
	backends := map[string]nvstore.Store{
		"block": nvstore.NewMemory(),
		"words": wordStore{nvstore.NewMemory()},
	}
	for name, nv := range backends {
		t.Run(name, func(t *testing.T) {
			s := New(nv)

			simple := Record{
				Rule:    Simple{Sensor: 2, MinMM: 50, MaxMM: 200},
				Pattern: Pattern{Haptic: 1, Beats: 3, OnMs: 200, OffMs: 100, Duty: 80},
			}
			compound := Record{
				Rule:    NewCompound(0, 1),
				Pattern: Pattern{Haptic: 0, Beats: 5, OnMs: 10, OffMs: 20, Duty: 30},
			}
			require.NoError(t, s.Write(4, simple))
			require.NoError(t, s.Write(17, compound))

			got, err := s.Read(4)
			require.NoError(t, err)
			assert.Equal(t, simple, got)

			got, err = s.Read(17)
			require.NoError(t, err)
			assert.Equal(t, compound, got)
		})
	}
}

func TestWriteUsesAllEightWords(t *testing.T) {
	nv := nvstore.NewMemory()
	s := New(nv)

	require.NoError(t, s.Write(1, Record{Rule: Simple{Sensor: 0, MinMM: 1, MaxMM: 2}}))
	assert.Equal(t, WordsPerEvent, nv.Writes)

	for i := 0; i < WordsPerEvent; i++ {
		v, err := nv.ReadWord(uint16(8 + i))
		require.NoError(t, err)
		assert.NotEqual(t, nvstore.Erased, v, "word %d", 8+i)
	}
}

func TestEraseDisablesRegardlessOfContent(t *testing.T) {
	s := New(nvstore.NewMemory())

	require.NoError(t, s.Write(0, Record{Rule: Simple{Sensor: 1, MinMM: 10, MaxMM: 20}}))
	require.NoError(t, s.Write(16, Record{Rule: NewCompound(0, 0)}))

	for _, i := range []int{0, 16, 19} {
		require.NoError(t, s.Erase(i))
		r, err := s.Read(i)
		require.NoError(t, err)
		assert.False(t, r.Rule.Enabled(), "event %d should be disabled after erase", i)
	}

	// Only word 0 changes; the thresholds stay behind, inert.
	r, err := s.Read(0)
	require.NoError(t, err)
	assert.Equal(t, Simple{Sensor: Disabled, MinMM: 10, MaxMM: 20}, r.Rule)
}

func TestIndexRange(t *testing.T) {
	s := New(nvstore.NewMemory())

	for _, i := range []int{-1, NumEvents, 100} {
		_, err := s.Read(i)
		assert.ErrorIs(t, err, ErrIndexRange)
		assert.ErrorIs(t, s.Write(i, Record{Rule: Simple{}}), ErrIndexRange)
		assert.ErrorIs(t, s.Erase(i), ErrIndexRange)
		assert.ErrorIs(t, s.SetHaptic(i, true), ErrIndexRange)
	}
}

func TestRuleKindMustMatchSlot(t *testing.T) {
	s := New(nvstore.NewMemory())

	assert.ErrorIs(t, s.Write(16, Record{Rule: Simple{}}), ErrRuleKind)
	assert.ErrorIs(t, s.Write(3, Record{Rule: NewCompound(0, 1)}), ErrRuleKind)
	assert.ErrorIs(t, s.Write(3, Record{}), ErrRuleKind)
}

func TestFreshSlotDecodesDisabled(t *testing.T) {
	s := New(nvstore.NewMemory())

	all, err := s.All()
	require.NoError(t, err)
	for i, r := range all {
		assert.False(t, r.Rule.Enabled(), "event %d", i)
		assert.True(t, r.Pattern.Unset(), "event %d", i)
		_, compound := r.Rule.(Compound)
		assert.Equal(t, IsCompound(i), compound, "event %d", i)
	}
}

func TestSetHapticAndPattern(t *testing.T) {
	s := New(nvstore.NewMemory())
	require.NoError(t, s.Write(5, Record{Rule: Simple{Sensor: 0, MinMM: 1, MaxMM: 9}}))

	require.NoError(t, s.SetPattern(5, Pattern{Haptic: 0, Beats: 3, OnMs: 200, OffMs: 100, Duty: 80}))
	require.NoError(t, s.SetHaptic(5, true))

	r, err := s.Read(5)
	require.NoError(t, err)
	assert.Equal(t, Pattern{Haptic: 1, Beats: 3, OnMs: 200, OffMs: 100, Duty: 80}, r.Pattern)
	assert.Equal(t, Simple{Sensor: 0, MinMM: 1, MaxMM: 9}, r.Rule)

	// SetPattern keeps the haptic flag.
	require.NoError(t, s.SetPattern(5, Pattern{Beats: 1, OnMs: 5, OffMs: 5, Duty: 10}))
	r, err = s.Read(5)
	require.NoError(t, err)
	assert.True(t, r.Pattern.Enabled())

	require.NoError(t, s.SetHaptic(5, false))
	r, err = s.Read(5)
	require.NoError(t, err)
	assert.False(t, r.Pattern.Enabled())
}

func TestBackingErrorsAreWrapped(t *testing.T) {
	nv := nvstore.NewMemory()
	s := New(nv)
	boom := errors.New("eeprom busy")

	nv.ReadError = boom
	_, err := s.Read(2)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read event 2")

	nv.ReadError = nil
	nv.WriteError = boom
	err = s.Write(2, Record{Rule: Simple{}})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write event 2")
	assert.ErrorIs(t, s.Erase(2), boom)
}
