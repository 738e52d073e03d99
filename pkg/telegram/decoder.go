package telegram

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	StartMarker = '/'
	EndMarker   = '!'

	// MaxTelegramSize bounds the bytes captured from '/' through '!'.
	MaxTelegramSize = 2048

	checksumDigits = 4
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrFrameTooLong     = errors.New("telegram exceeds capture buffer")
)

type State uint8

const (
	StateIdle State = iota
	StateCapturing
	StateReadingChecksum
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateReadingChecksum:
		return "reading_checksum"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Decoder extracts checksummed telegrams from a raw byte stream, one byte per call.
// The zero value is not usable, create one with NewDecoder.
type Decoder struct {
	state    State
	buf      []byte
	checksum [checksumDigits]byte
	digits   int
}

func NewDecoder() *Decoder {
	return &Decoder{
		state: StateIdle,
		buf:   make([]byte, 0, MaxTelegramSize),
	}
}

func (d *Decoder) State() State {
	return d.state
}

// Feed advances the state machine by one byte.
//
// It returns the validated telegram (from '/' through '!') once its checksum line
// has been read. The returned slice aliases the decoder's buffer and is only valid
// until the next call. ErrChecksumMismatch and ErrFrameTooLong report a dropped
// frame; the decoder is back in StateIdle and decoding continues normally.
func (d *Decoder) Feed(b byte) ([]byte, error) {
	switch d.state {
	case StateIdle:
		if b != StartMarker {
			return nil, nil
		}
		d.buf = d.buf[:0]
		d.buf = append(d.buf, b)
		d.state = StateCapturing
		return nil, nil

	case StateCapturing:
		if len(d.buf) >= MaxTelegramSize {
			d.reset()
			return nil, ErrFrameTooLong
		}
		d.buf = append(d.buf, b)
		if b == EndMarker {
			d.digits = 0
			d.state = StateReadingChecksum
		}
		return nil, nil

	case StateReadingChecksum:
		if b == '\r' || b == '\n' {
			d.state = StateReady
			return d.verify()
		}
		d.checksum[d.digits] = b
		d.digits++
		if d.digits == checksumDigits {
			d.state = StateReady
			return d.verify()
		}
		return nil, nil

	case StateReady:
		// Resolved in the step that enters it.
		return d.verify()

	default:
		d.reset()
		return nil, nil
	}
}

func (d *Decoder) verify() ([]byte, error) {
	d.state = StateIdle

	given, err := strconv.ParseUint(string(d.checksum[:d.digits]), 16, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable checksum %q", ErrChecksumMismatch, d.checksum[:d.digits])
	}
	if calc := Checksum(d.buf); uint16(given) != calc {
		return nil, fmt.Errorf("%w: telegram says %04X, calculated %04X", ErrChecksumMismatch, given, calc)
	}
	return d.buf, nil
}

func (d *Decoder) reset() {
	d.buf = d.buf[:0]
	d.digits = 0
	d.state = StateIdle
}
