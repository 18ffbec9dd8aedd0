package inputs

// statusControlChange is the high nibble of a control change status byte.
const statusControlChange = 0xB

// Message is one raw three-byte channel message as read from a device.
type Message struct {
	Status uint8
	Data1  uint8
	Data2  uint8
}

// MessageFromBytes builds a Message from raw bytes. Messages shorter than
// a status byte are rejected; missing data bytes read as zero.
func MessageFromBytes(b []byte) (Message, bool) {
	var m Message
	switch {
	case len(b) >= 3:
		m.Data2 = b[2]
		fallthrough
	case len(b) == 2:
		m.Data1 = b[1]
		fallthrough
	case len(b) == 1:
		m.Status = b[0]
	default:
		return m, false
	}
	return m, true
}

// ControlChange decodes m when it is a control change message. The channel
// is 1-based; control and value are 7-bit.
func (m Message) ControlChange() (channel, control, value uint8, ok bool) {
	if m.Status>>4 != statusControlChange {
		return 0, 0, 0, false
	}
	return m.Status&0x0F + 1, m.Data1 & 0x7F, m.Data2 & 0x7F, true
}
