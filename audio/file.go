package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const fileChunkSamples = 1024

// FileInput decodes an audio file with ffmpeg at real-time rate, looping
// forever, and delivers mono float chunks.
type FileInput struct {
	path       string
	sampleRate int
	cmd        *exec.Cmd
	audioChan  chan []float32
	wg         sync.WaitGroup
	dropped    atomic.Uint64
}

func NewFileInput(path string, sampleRate int) *FileInput {
	return &FileInput{path: path, sampleRate: sampleRate}
}

// command builds the ffmpeg invocation: loop the input, pace it in real
// time and write raw little-endian float32 mono PCM to stdout.
func (d *FileInput) command() *exec.Cmd {
	return ffmpeg.Input(d.path, ffmpeg.KwArgs{"re": "", "stream_loop": -1}).
		Output("pipe:", ffmpeg.KwArgs{"format": "f32le", "acodec": "pcm_f32le", "ac": 1, "ar": d.sampleRate}).
		Compile()
}

func (d *FileInput) Start() (<-chan []float32, error) {
	d.cmd = d.command()
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg output: %w", err)
	}
	if err := d.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg for %s: %w", d.path, err)
	}
	slog.Info("decoding audio file", "path", d.path, "rate", d.sampleRate)

	d.audioChan = make(chan []float32, 16)
	d.wg.Add(1)
	go d.readLoop(stdout)
	return d.audioChan, nil
}

func (d *FileInput) readLoop(r io.Reader) {
	defer d.wg.Done()
	samples, err := readSamples(bufio.NewReader(r), fileChunkSamples, func(chunk []float32) {
		if !push(d.audioChan, chunk) {
			d.dropped.Add(1)
		}
	})
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		slog.Warn("audio file decoding stopped", "path", d.path, "err", err)
		return
	}
	slog.Debug("audio file decoder exited", "path", d.path, "samples", samples)
}

// readSamples reads little-endian float32 PCM from r in chunks of n samples
// and hands each chunk to emit. It returns the number of samples read.
func readSamples(r io.Reader, n int, emit func([]float32)) (int, error) {
	raw := make([]byte, n*4)
	chunk := make([]float32, n)
	total := 0
	for {
		read, err := io.ReadFull(r, raw)
		count := read / 4
		for i := 0; i < count; i++ {
			chunk[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		if count > 0 {
			emit(chunk[:count])
			total += count
		}
		if err != nil {
			return total, err
		}
	}
}

func (d *FileInput) Stop() error {
	if d.cmd == nil || d.cmd.Process == nil {
		return nil
	}
	if err := d.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	// The reader sees EOF once the process is gone; Wait closes the pipe.
	d.wg.Wait()
	d.cmd.Wait()
	d.cmd = nil
	return nil
}

func (d *FileInput) SampleRate() int {
	return d.sampleRate
}

// Dropped returns how many chunks were discarded because the consumer fell behind.
func (d *FileInput) Dropped() uint64 {
	return d.dropped.Load()
}
