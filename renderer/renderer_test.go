package renderer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshaderlive/audio"
	"github.com/richinsley/goshaderlive/config"
	"github.com/richinsley/goshaderlive/graphics/graphicstest"
	"github.com/richinsley/goshaderlive/inputs"
	"github.com/richinsley/goshaderlive/shader"
)

const faderSource = `#version 410 core
out vec4 fragColor;
uniform vec2 u_resolution;
uniform float u_time;
uniform float u_fader;
void main() { fragColor = vec4(u_fader); }
`

const plainSource = `#version 410 core
out vec4 fragColor;
uniform vec2 u_resolution;
uniform float u_time;
void main() { fragColor = vec4(1.0); }
`

type fakeDevice struct {
	id      inputs.DeviceID
	pending []inputs.Message
	closes  int
}

func (d *fakeDevice) ID() inputs.DeviceID { return d.id }

func (d *fakeDevice) Read() ([]inputs.Message, error) {
	out := d.pending
	d.pending = nil
	return out, nil
}

func (d *fakeDevice) Close() error {
	d.closes++
	return nil
}

type harness struct {
	t       *testing.T
	path    string
	gpu     *graphicstest.GPU
	ctx     *graphicstest.Context
	reloads chan struct{}
	devices map[inputs.DeviceID]*fakeDevice
	diag    bytes.Buffer
	r       *Renderer
}

func faderConfig() *config.Config {
	return &config.Config{MIDI: map[string]map[string]map[string]string{
		"1": {"1": {"7": "u_fader", "8": "u_missing"}},
	}}
}

func newHarness(t *testing.T, source string, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		path:    filepath.Join(t.TempDir(), "scene.frag"),
		gpu:     graphicstest.NewGPU(),
		ctx:     &graphicstest.Context{Width: 640, Height: 480, Clock: 10, Step: 0.5},
		reloads: make(chan struct{}, 8),
		devices: make(map[inputs.DeviceID]*fakeDevice),
	}
	h.write(source)
	h.r = New(Options{
		ShaderPath:  h.path,
		Config:      cfg,
		Context:     h.ctx,
		GPU:         h.gpu,
		Reloads:     h.reloads,
		Devices:     h.open,
		Diagnostics: &h.diag,
	})
	return h
}

func (h *harness) open(id inputs.DeviceID) (inputs.Device, error) {
	if id != 1 {
		return nil, errors.New("no such device")
	}
	d := &fakeDevice{id: id}
	h.devices[id] = d
	return d, nil
}

func (h *harness) write(source string) {
	require.NoError(h.t, os.WriteFile(h.path, []byte(source), 0o644))
}

func (h *harness) signal(n int) {
	for i := 0; i < n; i++ {
		h.reloads <- struct{}{}
	}
}

func cc(channel, control, value uint8) inputs.Message {
	return inputs.Message{Status: 0xB0 | (channel - 1), Data1: control, Data2: value}
}

func TestStartLoadsShader(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	assert.Equal(t, Starting, h.r.Phase())
	require.NoError(t, h.r.Start())

	assert.Equal(t, Running, h.r.Phase())
	assert.Equal(t, 1, h.r.Loads())
	scene := h.r.Scene()
	require.NotNil(t, scene)
	assert.True(t, scene.Program.Resolved("u_fader"))
	assert.False(t, scene.Program.Resolved("u_missing"))
	assert.Equal(t, 2, scene.Table.Len())
	assert.Contains(t, h.devices, inputs.DeviceID(1))
}

func TestStartFailsWithoutShader(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, os.Remove(h.path))

	err := h.r.Start()
	var re *shader.ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Starting, h.r.Phase())
	assert.Nil(t, h.r.Scene())
	assert.Equal(t, 1, h.devices[1].closes)

	h.r.Shutdown()
	assert.True(t, h.gpu.Destroyed)
	assert.Equal(t, 1, h.ctx.ShutdownCalls)
}

func TestStartFailsOnCompileError(t *testing.T) {
	h := newHarness(t, "#error broken", nil)
	require.Error(t, h.r.Start())
	assert.Contains(t, h.diag.String(), "#error broken")
	assert.False(t, h.r.Step())
}

func TestFaderScenario(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, h.r.Start())

	h.devices[1].pending = []inputs.Message{cc(1, 7, 64)}
	require.True(t, h.r.Step())

	v, ok := h.r.Value(inputs.ControllerKey{Device: 1, Channel: 1, Control: 7})
	require.True(t, ok)
	assert.Equal(t, uint8(64), v)

	got, ok := h.gpu.Value("u_fader")
	require.True(t, ok)
	assert.Equal(t, []float32{64.0 / 127.0}, got)
	assert.Equal(t, 1, h.gpu.Draws)
	assert.Equal(t, 1, h.ctx.Frames)
}

func TestSharedUniformFollowsLatestController(t *testing.T) {
	cfg := &config.Config{MIDI: map[string]map[string]map[string]string{
		"1": {"1": {"7": "u_fader", "8": "u_fader"}},
	}}
	h := newHarness(t, faderSource, cfg)
	require.NoError(t, h.r.Start())
	loc := h.r.Scene().Program.Location("u_fader")
	require.GreaterOrEqual(t, loc, int32(0))

	faderWrites := func() []float32 {
		var out []float32
		for _, w := range h.gpu.Writes {
			if w.Location == loc {
				out = append(out, w.Values[0])
			}
		}
		return out
	}

	h.devices[1].pending = []inputs.Message{cc(1, 7, 0), cc(1, 8, 127)}
	const frames = 200
	for i := 0; i < frames; i++ {
		require.True(t, h.r.Step())
	}
	written := faderWrites()
	require.Len(t, written, frames)
	for _, v := range written {
		require.Equal(t, float32(1), v)
	}

	h.gpu.ResetWrites()
	h.devices[1].pending = []inputs.Message{cc(1, 7, 0)}
	for i := 0; i < frames; i++ {
		h.r.Step()
	}
	written = faderWrites()
	require.Len(t, written, frames)
	for _, v := range written {
		require.Equal(t, float32(0), v)
	}
}

func TestRawValues(t *testing.T) {
	cfg := faderConfig()
	cfg.RawValues = true
	h := newHarness(t, faderSource, cfg)
	require.NoError(t, h.r.Start())

	h.devices[1].pending = []inputs.Message{cc(1, 7, 100)}
	h.r.Step()
	got, _ := h.gpu.Value("u_fader")
	assert.Equal(t, []float32{100}, got)
}

func TestLatestValueWinsAcrossFrames(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, h.r.Start())

	h.devices[1].pending = []inputs.Message{cc(1, 7, 10), cc(1, 7, 127)}
	h.r.Step()
	got, _ := h.gpu.Value("u_fader")
	assert.Equal(t, []float32{1}, got)

	// No new messages: the cached value keeps being written.
	h.gpu.ResetWrites()
	h.r.Step()
	got, ok := h.gpu.Value("u_fader")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, got)
}

func TestUnresolvedUniformNotWritten(t *testing.T) {
	h := newHarness(t, plainSource, faderConfig())
	require.NoError(t, h.r.Start())

	h.devices[1].pending = []inputs.Message{cc(1, 7, 64), cc(1, 8, 1)}
	require.True(t, h.r.Step())

	// resolution and time only
	require.Len(t, h.gpu.Writes, 2)
	for _, w := range h.gpu.Writes {
		assert.GreaterOrEqual(t, w.Location, int32(0))
	}
	assert.Equal(t, 1, h.gpu.Draws)
}

func TestTimeAndResolution(t *testing.T) {
	h := newHarness(t, plainSource, nil)
	require.NoError(t, h.r.Start())

	h.r.Step()
	tm, _ := h.gpu.Value(shader.TimeUniform)
	assert.Equal(t, []float32{0}, tm)
	res, _ := h.gpu.Value(shader.ResolutionUniform)
	assert.Equal(t, []float32{640, 480}, res)

	h.ctx.Width = 800
	h.r.Step()
	tm, _ = h.gpu.Value(shader.TimeUniform)
	assert.Equal(t, []float32{0.5}, tm)
	res, _ = h.gpu.Value(shader.ResolutionUniform)
	assert.Equal(t, []float32{800, 480}, res)
}

func TestReloadSwapsProgram(t *testing.T) {
	h := newHarness(t, plainSource, faderConfig())
	require.NoError(t, h.r.Start())
	old := h.r.Scene()

	h.write(faderSource)
	h.signal(1)
	require.True(t, h.r.Step())

	next := h.r.Scene()
	assert.NotSame(t, old, next)
	assert.NotEqual(t, old.Program.ID, next.Program.ID)
	assert.Equal(t, 1, h.gpu.Deleted[old.Program.ID])
	assert.True(t, old.Program.Released())
	assert.Equal(t, next.Program.ID, h.gpu.Current())

	h.signal(1)
	h.r.Step()
	assert.Equal(t, 1, h.gpu.Deleted[old.Program.ID])
	assert.Equal(t, 1, h.gpu.Deleted[next.Program.ID])
}

func TestFailedReloadKeepsScene(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, h.r.Start())
	before := h.r.Scene()
	id := before.Program.ID
	table := before.Table

	h.write("#error missing semicolon")
	h.signal(1)
	require.True(t, h.r.Step())

	assert.Same(t, before, h.r.Scene())
	assert.Equal(t, id, h.r.Scene().Program.ID)
	assert.Same(t, table, h.r.Scene().Table)
	assert.Empty(t, h.gpu.Deleted)
	assert.Contains(t, h.diag.String(), "#error missing semicolon")

	// Rendering continues with the previous program.
	assert.Equal(t, 1, h.gpu.Draws)
	require.True(t, h.r.Step())
	assert.Equal(t, 2, h.gpu.Draws)
	assert.Equal(t, id, h.gpu.Current())

	// A failed read is recoverable too.
	require.NoError(t, os.Remove(h.path))
	h.signal(1)
	require.True(t, h.r.Step())
	assert.Same(t, before, h.r.Scene())
	assert.Equal(t, 3, h.r.Loads())
}

func TestReloadBurstLoadsOnce(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, h.r.Start())

	h.signal(5)
	h.r.Step()
	assert.Equal(t, 2, h.r.Loads())
	assert.Empty(t, h.reloads)

	h.r.Step()
	assert.Equal(t, 2, h.r.Loads())
}

func TestClosedReloadChannel(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, h.r.Start())

	close(h.reloads)
	assert.True(t, h.r.Step())
	assert.True(t, h.r.Step())
	assert.Equal(t, 1, h.r.Loads())
}

func TestUnopenedDeviceMappingsSkipped(t *testing.T) {
	cfg := &config.Config{MIDI: map[string]map[string]map[string]string{
		"1": {"1": {"7": "u_fader"}},
		"2": {"1": {"7": "u_other"}},
	}}
	h := newHarness(t, faderSource, cfg)
	require.NoError(t, h.r.Start())

	table := h.r.Scene().Table
	assert.Equal(t, []string{"u_fader"}, table.Uniforms())
	_, ok := table.Lookup(inputs.ControllerKey{Device: 2, Channel: 1, Control: 7})
	assert.False(t, ok)
}

func TestRunStopsOnClose(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	h.ctx.CloseAfter = 3
	require.NoError(t, h.r.Start())

	h.r.Run()
	assert.Equal(t, Stopping, h.r.Phase())
	assert.Equal(t, 3, h.ctx.Polls)
	assert.Equal(t, 2, h.ctx.Frames)
	assert.False(t, h.r.Step())
	assert.Equal(t, 3, h.ctx.Polls)
}

func TestShutdownReleasesEverything(t *testing.T) {
	h := newHarness(t, faderSource, faderConfig())
	require.NoError(t, h.r.Start())
	id := h.r.Scene().Program.ID

	h.r.Shutdown()
	h.r.Shutdown()
	assert.Equal(t, 1, h.gpu.Deleted[id])
	assert.Equal(t, 1, h.devices[1].closes)
	assert.True(t, h.gpu.Destroyed)
	assert.Equal(t, 1, h.ctx.ShutdownCalls)
	assert.Nil(t, h.r.Scene())
}

func TestAudioUniforms(t *testing.T) {
	source := plainSource + "uniform float u_audio_bass;\n"
	h := newHarness(t, source, nil)
	h.r.opts.Audio = audio.NewNullDevice(audio.DefaultSampleRate)
	require.NoError(t, h.r.Start())
	require.True(t, h.r.Scene().Program.Resolved(audio.BassUniform))

	h.r.Step()
	got, ok := h.gpu.Value(audio.BassUniform)
	require.True(t, ok)
	assert.Equal(t, []float32{0}, got)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
