// Package replay records raw touch input to a file and plays it back as a
// device, so gesture tuning can be exercised without the panel.
package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lunixbochs/struc"

	"github.com/phinze/darkpad/internal/device"
)

// RecordSize is the on-disk size of one event: the 64-bit input_event layout.
const RecordSize = 24

var structOptions = &struc.Options{Order: binary.LittleEndian}

// record matches struct input_event on 64-bit little-endian kernels, so
// captures from /dev/input can be replayed directly.
type record struct {
	Sec   int64  `struc:"int64"`
	Usec  int64  `struc:"int64"`
	Type  uint16 `struc:"uint16"`
	Code  uint16 `struc:"uint16"`
	Value int32  `struc:"int32"`
}

// Encode writes ev as one input_event record.
func Encode(w io.Writer, ev device.InputEvent) error {
	rec := record{
		Sec:   ev.Time.Unix(),
		Usec:  int64(ev.Time.Nanosecond()) / int64(time.Microsecond),
		Type:  ev.Type,
		Code:  ev.Code,
		Value: ev.Value,
	}
	if err := struc.PackWithOptions(w, &rec, structOptions); err != nil {
		return fmt.Errorf("packing input event: %w", err)
	}
	return nil
}

// Decode reads one input_event record. It returns io.EOF at a clean end of
// stream and io.ErrUnexpectedEOF for a truncated record.
func Decode(r io.Reader) (device.InputEvent, error) {
	var buf [RecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return device.InputEvent{}, err
	}

	var rec record
	if err := struc.UnpackWithOptions(bytes.NewReader(buf[:]), &rec, structOptions); err != nil {
		return device.InputEvent{}, fmt.Errorf("unpacking input event: %w", err)
	}
	return device.InputEvent{
		Time:  time.Unix(rec.Sec, rec.Usec*int64(time.Microsecond)),
		Type:  rec.Type,
		Code:  rec.Code,
		Value: rec.Value,
	}, nil
}

// ReadAll decodes every record from r.
func ReadAll(r io.Reader) ([]device.InputEvent, error) {
	var events []device.InputEvent
	for {
		ev, err := Decode(r)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
