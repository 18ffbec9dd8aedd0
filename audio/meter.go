package audio

import (
	"log/slog"
	"math"

	fft "github.com/mjibson/go-dsp/fft"
)

// Uniforms fed from the audio meter. Each is a float in [0, 1].
const (
	LevelUniform  = "u_audio_level"
	BassUniform   = "u_audio_bass"
	MidUniform    = "u_audio_mid"
	TrebleUniform = "u_audio_treble"
)

// Uniforms lists every uniform the meter writes.
func Uniforms() []string {
	return []string{LevelUniform, BassUniform, MidUniform, TrebleUniform}
}

const (
	fftInputSize    = 2048
	minDecibels     = -100.0
	maxDecibels     = -30.0
	smoothingFactor = 0.8

	bassMaxHz = 250.0
	midMaxHz  = 4000.0
)

// Levels is one analysis of the most recent audio window.
type Levels struct {
	Level  float32 // RMS of the window
	Bass   float32
	Mid    float32
	Treble float32
}

// Meter turns an AudioDevice into per-frame band levels. Poll is called on
// the render thread and never blocks.
type Meter struct {
	device   AudioDevice
	ch       <-chan []float32
	history  []float32
	pos      int
	window   []float64
	dropped  uint64
	smoothed [3]float64
	levels   Levels
}

func NewMeter(device AudioDevice) *Meter {
	m := &Meter{
		device:  device,
		history: make([]float32, fftInputSize),
		window:  blackmanWindow(fftInputSize),
	}
	for i := range m.smoothed {
		m.smoothed[i] = minDecibels
	}
	return m
}

// Start starts the device. On error the device is stopped again so it can
// release what it acquired, and the meter stays silent.
func (m *Meter) Start() error {
	ch, err := m.device.Start()
	if err != nil {
		if stopErr := m.device.Stop(); stopErr != nil {
			slog.Debug("failed to release audio input", "err", stopErr)
		}
		return err
	}
	m.ch = ch
	return nil
}

// Poll drains whatever audio arrived since the last call and returns the
// updated levels. Without any audio all levels are zero.
func (m *Meter) Poll() Levels {
	fresh := false
drain:
	for {
		select {
		case samples, ok := <-m.ch:
			if !ok {
				m.ch = nil
				break drain
			}
			for _, s := range samples {
				m.history[m.pos] = s
				m.pos = (m.pos + 1) % fftInputSize
			}
			fresh = fresh || len(samples) > 0
		default:
			break drain
		}
	}
	if fresh {
		m.analyze()
	}
	m.reportDropped()
	return m.levels
}

// dropCounter is implemented by inputs that discard audio when the render
// thread falls behind.
type dropCounter interface {
	Dropped() uint64
}

func (m *Meter) reportDropped() {
	dc, ok := m.device.(dropCounter)
	if !ok {
		return
	}
	if total := dc.Dropped(); total > m.dropped {
		slog.Warn("audio input buffer full, chunks dropped", "count", total-m.dropped)
		m.dropped = total
	}
}

func (m *Meter) Levels() Levels {
	return m.levels
}

// recent returns the history window oldest sample first.
func (m *Meter) recent() []float64 {
	out := make([]float64, fftInputSize)
	var sum float64
	for i := range out {
		s := float64(m.history[(m.pos+i)%fftInputSize])
		sum += s * s
		out[i] = s * m.window[i]
	}
	m.levels.Level = float32(math.Min(1, math.Sqrt(sum/fftInputSize)))
	return out
}

func (m *Meter) analyze() {
	spectrum := fft.FFTReal(m.recent())

	binHz := float64(m.device.SampleRate()) / fftInputSize
	var sums [3]float64
	var counts [3]int
	// Skip DC; only the first half of the spectrum is meaningful.
	for i := 1; i < fftInputSize/2; i++ {
		re, im := real(spectrum[i]), imag(spectrum[i])
		magnitude := math.Sqrt(re*re+im*im) * (2.0 / fftInputSize)
		band := bandOf(float64(i) * binHz)
		sums[band] += magnitude
		counts[band]++
	}

	var scaled [3]float32
	for b := range sums {
		db := minDecibels
		if counts[b] > 0 {
			db = 20 * math.Log10(sums[b]/float64(counts[b])+1e-9)
		}
		m.smoothed[b] = smoothingFactor*m.smoothed[b] + (1-smoothingFactor)*db
		scaled[b] = scaleDecibels(m.smoothed[b])
	}
	m.levels.Bass, m.levels.Mid, m.levels.Treble = scaled[0], scaled[1], scaled[2]
}

func bandOf(hz float64) int {
	switch {
	case hz < bassMaxHz:
		return 0
	case hz < midMaxHz:
		return 1
	default:
		return 2
	}
}

func scaleDecibels(db float64) float32 {
	switch {
	case db <= minDecibels:
		return 0
	case db >= maxDecibels:
		return 1
	default:
		return float32((db - minDecibels) / (maxDecibels - minDecibels))
	}
}

// Stop stops the device.
func (m *Meter) Stop() {
	if err := m.device.Stop(); err != nil {
		slog.Warn("failed to stop audio input", "err", err)
	}
	m.ch = nil
}

// blackmanWindow generates a Blackman window.
func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	const a0, a1, a2 = 0.42, 0.5, 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - a1*math.Cos(2*math.Pi*t) + a2*math.Cos(4*math.Pi*t)
	}
	return window
}
