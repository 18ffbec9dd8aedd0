package inputs

import (
	"log/slog"
	"slices"
	"sort"
)

// Poller drains every open controller device once per tick and folds the
// control change messages into a latest-value-wins update set.
//
// Devices are read on the calling goroutine only. A Poller is not safe for
// concurrent use.
type Poller struct {
	devices []Device
	failing map[DeviceID]bool
}

// NewPoller wraps already opened devices.
func NewPoller(devices ...Device) *Poller {
	p := &Poller{failing: make(map[DeviceID]bool)}
	for _, d := range devices {
		if d != nil {
			p.devices = append(p.devices, d)
		}
	}
	sort.Slice(p.devices, func(i, j int) bool { return p.devices[i].ID() < p.devices[j].ID() })
	return p
}

// OpenPoller opens each device with open. Devices that fail to open are
// logged and skipped; they never contribute events.
func OpenPoller(ids []DeviceID, open Opener) *Poller {
	var devices []Device
	seen := make(map[DeviceID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		d, err := open(id)
		if err != nil {
			slog.Warn("failed to open controller device", "device", id, "err", err)
			continue
		}
		slog.Info("opened controller device", "device", id)
		devices = append(devices, d)
	}
	return NewPoller(devices...)
}

// IsOpen reports whether a device with id is being polled.
func (p *Poller) IsOpen(id DeviceID) bool {
	for _, d := range p.devices {
		if d.ID() == id {
			return true
		}
	}
	return false
}

// Devices returns the ids of the polled devices in ascending order.
func (p *Poller) Devices() []DeviceID {
	ids := make([]DeviceID, len(p.devices))
	for i, d := range p.devices {
		ids[i] = d.ID()
	}
	return ids
}

// Update is the latest value a poll saw for one controller.
type Update struct {
	Key   ControllerKey
	Value uint8
}

// Poll reads all pending messages from every device without blocking.
// Only control change messages are kept and, per controller, only the last
// one read. Updates are ordered by when that last message was read, devices
// in ascending id order. A device whose read fails contributes nothing for
// this tick; the failure is logged once until the device reads cleanly again.
func (p *Poller) Poll() []Update {
	var seen []Update
	for _, d := range p.devices {
		id := d.ID()
		messages, err := d.Read()
		if err != nil {
			if !p.failing[id] {
				slog.Warn("failed to read controller device", "device", id, "err", err)
				p.failing[id] = true
			}
			continue
		}
		if p.failing[id] {
			slog.Info("controller device readable again", "device", id)
			delete(p.failing, id)
		}

		for _, m := range messages {
			channel, control, value, ok := m.ControlChange()
			if !ok {
				continue
			}
			seen = append(seen, Update{Key: ControllerKey{Device: id, Channel: channel, Control: control}, Value: value})
		}
	}
	return latest(seen)
}

// latest keeps the last update per controller, preserving arrival order.
func latest(seen []Update) []Update {
	if len(seen) == 0 {
		return nil
	}
	kept := make(map[ControllerKey]bool, len(seen))
	out := make([]Update, 0, len(seen))
	for i := len(seen) - 1; i >= 0; i-- {
		if !kept[seen[i].Key] {
			kept[seen[i].Key] = true
			out = append(out, seen[i])
		}
	}
	slices.Reverse(out)
	return out
}

// Close closes every device. Errors are logged, not returned.
func (p *Poller) Close() {
	for _, d := range p.devices {
		if err := d.Close(); err != nil {
			slog.Warn("failed to close controller device", "device", d.ID(), "err", err)
		}
	}
	p.devices = nil
}
