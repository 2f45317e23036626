package position

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	off  int64
	data []byte
}

// recordingStorage keeps track of every write so wear and ordering can be checked
type recordingStorage struct {
	*Memory
	writes []write
	synced int
	failAt int
}

func (r *recordingStorage) WriteAt(p []byte, off int64) (int, error) {
	if r.failAt > 0 && len(r.writes)+1 == r.failAt {
		r.writes = append(r.writes, write{off, nil})
		return 0, errors.New("bus error")
	}
	r.writes = append(r.writes, write{off, append([]byte{}, p...)})
	return r.Memory.WriteAt(p, off)
}

func (r *recordingStorage) Sync() error {
	r.synced++
	return nil
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		offset int
	}{
		{"Positive", 42},
		{"Negative", -42},
		{"Zero", 0},
		{"UpperLimit", 100},
		{"LowerLimit", -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(NewMemory(16), 100)
			require.NoError(t, s.Write(tt.offset))

			offset, err := s.Read()
			require.NoError(t, err)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestReadUncalibrated(t *testing.T) {
	t.Run("FactoryErased", func(t *testing.T) {
		s := New(NewMemory(16), 100)
		_, err := s.Read()
		assert.ErrorIs(t, err, ErrUncalibrated)
	})

	t.Run("IndicatorCorrupted", func(t *testing.T) {
		mem := NewMemory(16)
		s := New(mem, 100)
		require.NoError(t, s.Write(42))

		_, err := mem.WriteAt([]byte{0x5A}, IndicatorAddr)
		require.NoError(t, err)

		offset, err := s.Read()
		assert.ErrorIs(t, err, ErrUncalibrated)
		assert.Equal(t, 0, offset)
	})

	t.Run("GarbageOffsetWithIndicator", func(t *testing.T) {
		mem := NewMemory(16)
		_, err := mem.WriteAt([]byte{Indicator, 0xFF, 0xFF, 0xFF, 0x7F}, 0)
		require.NoError(t, err)

		_, err = New(mem, 100).Read()
		assert.ErrorIs(t, err, ErrUncalibrated)
	})
}

func TestReadStorageError(t *testing.T) {
	s := New(NewMemory(2), 100)
	_, err := s.Read()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUncalibrated)
	assert.ErrorContains(t, err, io.EOF.Error())
}

func TestWriteOutOfRange(t *testing.T) {
	s := New(NewMemory(16), 100)
	assert.ErrorIs(t, s.Write(101), ErrOutOfRange)
	assert.ErrorIs(t, s.Write(-101), ErrOutOfRange)
}

func TestWriteOrdering(t *testing.T) {
	storage := &recordingStorage{Memory: NewMemory(16)}
	s := New(storage, 100)

	require.NoError(t, s.Write(-3))

	require.Len(t, storage.writes, 3)
	assert.Equal(t, write{IndicatorAddr, []byte{Erased}}, storage.writes[0])
	assert.Equal(t, write{PositionAddr, []byte{0xFD, 0xFF, 0xFF, 0xFF}}, storage.writes[1])
	assert.Equal(t, write{IndicatorAddr, []byte{Indicator}}, storage.writes[2])
	assert.Equal(t, 1, storage.synced)
}

func TestWriteSkipsUnchanged(t *testing.T) {
	storage := &recordingStorage{Memory: NewMemory(16)}
	s := New(storage, 100)

	require.NoError(t, s.Write(7))
	require.NoError(t, s.Write(7))
	assert.Len(t, storage.writes, 3)

	require.NoError(t, s.Write(8))
	assert.Len(t, storage.writes, 6)
}

func TestInterruptedWriteIsUncalibrated(t *testing.T) {
	storage := &recordingStorage{Memory: NewMemory(16)}
	s := New(storage, 100)
	require.NoError(t, s.Write(10))

	// fail while writing the offset bytes of the second write
	storage.failAt = len(storage.writes) + 2
	assert.Error(t, s.Write(20))

	_, err := s.Read()
	assert.ErrorIs(t, err, ErrUncalibrated)
}

func TestMemory(t *testing.T) {
	mem := NewMemory(4)

	buf := make([]byte, 4)
	n, err := mem.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{Erased, Erased, Erased, Erased}, buf)

	_, err = mem.WriteAt([]byte{1, 2}, 3)
	assert.Error(t, err)

	n, err = mem.ReadAt(buf, 2)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
}
