package inputs

type fakeDevice struct {
	id       DeviceID
	pending  []Message
	readErr  error
	closeErr error
	reads    int
	closes   int
}

func (d *fakeDevice) ID() DeviceID { return d.id }

func (d *fakeDevice) Read() ([]Message, error) {
	d.reads++
	if d.readErr != nil {
		return nil, d.readErr
	}
	out := d.pending
	d.pending = nil
	return out, nil
}

func (d *fakeDevice) Close() error {
	d.closes++
	return d.closeErr
}

func cc(channel, control, value uint8) Message {
	return Message{Status: 0xB0 | (channel - 1), Data1: control, Data2: value}
}
