package inputs

import "errors"

// ErrDeviceClosed is returned by Read on a device that has been closed.
var ErrDeviceClosed = errors.New("device closed")

// Device defines the contract for a controller input.
type Device interface {
	// ID returns the id the device was opened with.
	ID() DeviceID

	// Read returns every message buffered since the previous call without
	// blocking. It returns an empty slice when nothing is pending.
	Read() ([]Message, error)

	// Close releases the device. Further reads return ErrDeviceClosed.
	Close() error
}

// Opener opens the controller device with the given id.
type Opener func(id DeviceID) (Device, error)
