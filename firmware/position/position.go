// Package position persists the steering step offset in non-volatile byte storage. The first
// byte is a validity indicator and the offset is only trusted when it matches.
package position

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	IndicatorAddr = 0
	PositionAddr  = 1

	// Indicator marks the position bytes as written by this firmware. Erased EEPROM reads 0xFF.
	Indicator byte = 0xA0
	// Erased is the value of a freshly erased storage cell
	Erased byte = 0xFF

	positionSize = 4
)

var (
	// ErrUncalibrated is returned when the indicator does not match, so the offset is garbage
	ErrUncalibrated = errors.New("steering position is not calibrated")
	// ErrOutOfRange is returned when writing an offset beyond the configured travel
	ErrOutOfRange = errors.New("steering position out of range")
)

// Storage is byte addressable non-volatile memory, like an I2C EEPROM or a file
type Storage interface {
	io.ReaderAt
	io.WriterAt
}

// syncer is implemented by storage that buffers writes, like *os.File
type syncer interface {
	Sync() error
}

// Store owns the Storage and is the only thing that writes to it
type Store struct {
	storage  Storage
	maxSteps int
}

// New creates a Store. Offsets beyond +/- maxSteps are never trusted.
func New(storage Storage, maxSteps int) *Store {
	return &Store{storage: storage, maxSteps: maxSteps}
}

// Read returns the persisted offset. It returns ErrUncalibrated if the indicator is not set or
// the stored value is outside of the steering travel.
func (s *Store) Read() (int, error) {
	var buf [1 + positionSize]byte
	_, err := s.storage.ReadAt(buf[:], IndicatorAddr)
	if err != nil {
		return 0, errors.New("error reading position: " + err.Error())
	}

	if buf[0] != Indicator {
		return 0, ErrUncalibrated
	}

	offset := int(int32(binary.LittleEndian.Uint32(buf[PositionAddr:])))
	if offset < -s.maxSteps || offset > s.maxSteps {
		return 0, ErrUncalibrated
	}

	return offset, nil
}

// Write persists the offset and sets the indicator. Nothing is written when the storage
// already holds the same calibrated offset.
func (s *Store) Write(offset int) error {
	if offset < -s.maxSteps || offset > s.maxSteps {
		return ErrOutOfRange
	}

	current, err := s.Read()
	if err == nil && current == offset {
		return nil
	}

	// clear the indicator first so an interrupted write reads back as uncalibrated
	_, err = s.storage.WriteAt([]byte{Erased}, IndicatorAddr)
	if err != nil {
		return errors.New("error clearing indicator: " + err.Error())
	}

	var buf [positionSize]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(offset)))
	_, err = s.storage.WriteAt(buf[:], PositionAddr)
	if err != nil {
		return errors.New("error writing position: " + err.Error())
	}

	_, err = s.storage.WriteAt([]byte{Indicator}, IndicatorAddr)
	if err != nil {
		return errors.New("error writing indicator: " + err.Error())
	}

	if sc, ok := s.storage.(syncer); ok {
		return sc.Sync()
	}
	return nil
}
