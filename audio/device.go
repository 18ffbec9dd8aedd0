package audio

// We use portaudio for microphone input.
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
// windows:	pacman -S mingw-w64-x86_64-portaudio

// DefaultSampleRate is used by every input unless the source dictates otherwise.
const DefaultSampleRate = 44100

// AudioDevice is a producer of mono audio sample chunks.
type AudioDevice interface {
	// Start begins audio processing and returns a receive-only channel of audio chunks.
	Start() (<-chan []float32, error)
	// Stop terminates the audio stream.
	Stop() error
	// SampleRate returns the sample rate of the device.
	SampleRate() int
}

// NullDevice produces silence.
type NullDevice struct {
	rate int
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

// Start returns a nil channel, which never delivers anything.
func (d *NullDevice) Start() (<-chan []float32, error) {
	return nil, nil
}

func (d *NullDevice) Stop() error { return nil }

func (d *NullDevice) SampleRate() int { return d.rate }

// push copies samples onto ch without blocking the producer. It reports
// whether the chunk was queued.
func push(ch chan []float32, samples []float32) bool {
	chunk := make([]float32, len(samples))
	copy(chunk, samples)
	select {
	case ch <- chunk:
		return true
	default:
		return false
	}
}
