package inputs

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// inputBufferSize bounds the messages held for one device between polls.
const inputBufferSize = 1024

// MIDIDevice is a MIDI input port. The driver delivers messages on its own
// goroutine; they are only queued there and handed out by Read on the
// polling goroutine.
type MIDIDevice struct {
	id       DeviceID
	port     drivers.In
	stop     func()
	messages chan Message
	dropped  atomic.Uint64
	closed   atomic.Bool
}

// OpenMIDI opens the MIDI input port whose number is id. It satisfies
// Opener. A MIDI driver must have been registered by the binary.
func OpenMIDI(id DeviceID) (Device, error) {
	port, err := midi.InPort(int(id))
	if err != nil {
		return nil, fmt.Errorf("no MIDI input %d: %w", id, err)
	}

	d := &MIDIDevice{
		id:       id,
		port:     port,
		messages: make(chan Message, inputBufferSize),
	}
	if err := port.Open(); err != nil {
		return nil, fmt.Errorf("failed to open MIDI input %d (%s): %w", id, port, err)
	}
	stop, err := midi.ListenTo(port, d.receive)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to listen on MIDI input %d (%s): %w", id, port, err)
	}
	d.stop = stop
	return d, nil
}

func (d *MIDIDevice) receive(msg midi.Message, timestampms int32) {
	m, ok := MessageFromBytes(msg)
	if !ok || d.closed.Load() {
		return
	}
	// Never block the driver's goroutine.
	select {
	case d.messages <- m:
	default:
		d.dropped.Add(1)
	}
}

func (d *MIDIDevice) ID() DeviceID { return d.id }

func (d *MIDIDevice) String() string {
	return fmt.Sprintf("[%d] %s", d.id, d.port)
}

func (d *MIDIDevice) Read() ([]Message, error) {
	if d.closed.Load() {
		return nil, ErrDeviceClosed
	}
	var out []Message
	for {
		select {
		case m := <-d.messages:
			out = append(out, m)
		default:
			if n := d.dropped.Swap(0); n > 0 {
				slog.Warn("controller input buffer full, messages dropped", "device", d.id, "count", n)
			}
			return out, nil
		}
	}
}

func (d *MIDIDevice) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if d.stop != nil {
		d.stop()
	}
	return d.port.Close()
}

// ListMIDIInputs describes the available MIDI input ports, one per line,
// prefixed with the id to use in the mapping file.
func ListMIDIInputs() []string {
	var out []string
	for _, port := range midi.GetInPorts() {
		out = append(out, fmt.Sprintf("[%d] %s", port.Number(), port.String()))
	}
	return out
}

// CloseMIDI shuts the registered MIDI driver down.
func CloseMIDI() {
	midi.CloseDriver()
}
