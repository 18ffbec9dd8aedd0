package inputs

import "fmt"

// DeviceID identifies an open controller device (a MIDI input port number).
type DeviceID uint8

// ControllerKey identifies one physical control: a control number on a
// channel of a device.
type ControllerKey struct {
	Device  DeviceID
	Channel uint8 // 1-16
	Control uint8 // 0-127
}

func (k ControllerKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Device, k.Channel, k.Control)
}

// MaxValue is the largest raw control-change value.
const MaxValue = 127

// Normalize maps a raw 0-127 controller value onto 0..1.
func Normalize(raw uint8) float32 {
	if raw > MaxValue {
		raw = MaxValue
	}
	return float32(raw) / MaxValue
}
