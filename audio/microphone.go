package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// Microphone captures the default input device through portaudio.
type Microphone struct {
	sampleRate  int
	stream      *portaudio.Stream
	audioChan   chan []float32
	isStreaming bool
	dropped     atomic.Uint64
}

func NewMicrophone(sampleRate int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &Microphone{sampleRate: sampleRate}, nil
}

// audioCallback runs on portaudio's thread and must not block.
func (m *Microphone) audioCallback(in []float32) {
	if !push(m.audioChan, in) {
		m.dropped.Add(1)
	}
}

func (m *Microphone) Start() (<-chan []float32, error) {
	m.audioChan = make(chan []float32, 16)

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, err
	}
	if host.DefaultInputDevice == nil {
		return nil, fmt.Errorf("no default audio input device")
	}

	params := portaudio.LowLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(m.sampleRate)

	stream, err := portaudio.OpenStream(params, m.audioCallback)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	m.stream = stream
	m.isStreaming = true

	return m.audioChan, nil
}

func (m *Microphone) Stop() error {
	if !m.isStreaming {
		return portaudio.Terminate()
	}
	m.isStreaming = false
	if err := m.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

// Dropped returns how many chunks were discarded because the consumer fell behind.
func (m *Microphone) Dropped() uint64 {
	return m.dropped.Load()
}
