package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/richinsley/goshaderlive/audio"
	"github.com/richinsley/goshaderlive/config"
	"github.com/richinsley/goshaderlive/graphics"
	"github.com/richinsley/goshaderlive/inputs"
	"github.com/richinsley/goshaderlive/shader"
)

type Phase int

const (
	Starting Phase = iota
	Running
	Stopping
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Renderer owns the active scene, the controller state and the devices
// feeding it. All of its methods run on the render thread.
type Renderer struct {
	opts     Options
	loader   *shader.Loader
	mappings []config.Mapping
	poller   *inputs.Poller
	state    *inputs.State
	meter    *audio.Meter

	current  *Scene
	previous *Scene

	phase  Phase
	start  float64
	loads  int
	closed bool
}

func New(opts Options) *Renderer {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = os.Stderr
	}
	return &Renderer{
		opts:   opts,
		loader: shader.NewLoader(opts.GPU, opts.Translator),
		state:  inputs.NewState(),
		phase:  Starting,
	}
}

// Start opens the controller devices and audio input, which may fail
// without consequence, then loads the shader. A failed first load is fatal
// since there is no program to fall back to.
func (r *Renderer) Start() error {
	if r.phase != Starting {
		return fmt.Errorf("renderer already %s", r.phase)
	}
	mappings, err := r.opts.Config.Mappings()
	if err != nil {
		return err
	}
	r.mappings = mappings

	r.poller = inputs.NewPoller()
	if r.opts.Devices != nil {
		ids, err := r.opts.Config.Devices()
		if err != nil {
			return err
		}
		deviceIDs := make([]inputs.DeviceID, len(ids))
		for i, id := range ids {
			deviceIDs[i] = inputs.DeviceID(id)
		}
		r.poller = inputs.OpenPoller(deviceIDs, r.opts.Devices)
	}

	if r.opts.Audio != nil {
		meter := audio.NewMeter(r.opts.Audio)
		if err := meter.Start(); err != nil {
			slog.Warn("audio input unavailable, audio uniforms stay at zero", "err", err)
		} else {
			r.meter = meter
		}
	}

	scene, err := r.load()
	if err != nil {
		r.poller.Close()
		r.poller = nil
		if r.meter != nil {
			r.meter.Stop()
			r.meter = nil
		}
		r.report(err)
		return fmt.Errorf("initial shader load: %w", err)
	}
	r.install(scene)

	r.start = r.opts.Context.Time()
	r.phase = Running
	slog.Info("rendering", "shader", r.opts.ShaderPath,
		"mappings", scene.Table.Len(), "devices", len(r.poller.Devices()))
	return nil
}

// load builds a fresh mapping table and compiles the shader against it.
func (r *Renderer) load() (*Scene, error) {
	r.loads++
	table := inputs.BuildTable(r.mappings, r.poller.IsOpen)
	var extra []string
	if r.meter != nil {
		extra = audio.Uniforms()
	}
	program, err := r.loader.Load(r.opts.ShaderPath, shader.RequiredUniforms(table.Uniforms(), extra))
	if err != nil {
		return nil, err
	}
	for _, e := range table.Entries() {
		if !program.Resolved(e.Uniform) {
			slog.Debug("uniform not used by shader", "uniform", e.Uniform, "control", e.Key)
		}
	}
	return &Scene{Program: program, Table: table}, nil
}

// install makes next the active scene and releases the one it replaces.
func (r *Renderer) install(next *Scene) {
	r.previous, r.current = r.current, next
	r.previous.Release(r.opts.GPU)
	r.previous = nil
}

func (r *Renderer) report(err error) {
	var ce *graphics.CompileError
	if errors.As(err, &ce) {
		slog.Error("shader compile failed", "path", r.opts.ShaderPath, "stage", ce.Stage)
		fmt.Fprintln(r.opts.Diagnostics, strings.TrimRight(ce.Log, "\n"))
		return
	}
	slog.Error("shader load failed", "path", r.opts.ShaderPath, "err", err)
}

func (r *Renderer) reload() {
	scene, err := r.load()
	if err != nil {
		r.report(err)
		slog.Warn("keeping previous program")
		return
	}
	r.install(scene)
	slog.Info("shader reloaded", "path", r.opts.ShaderPath, "program", scene.Program.ID)
}

// drainReloads empties the reload channel and reports whether anything was
// pending. Any number of signals counts as one reload.
func (r *Renderer) drainReloads() bool {
	pending := false
	for {
		select {
		case _, ok := <-r.opts.Reloads:
			if !ok {
				r.opts.Reloads = nil
				return pending
			}
			pending = true
		default:
			return pending
		}
	}
}

// Step runs one frame. It returns false once the renderer is no longer
// running.
func (r *Renderer) Step() bool {
	if r.phase != Running {
		return false
	}
	ctx := r.opts.Context

	ctx.PollEvents()
	if ctx.ShouldClose() {
		r.phase = Stopping
		slog.Info("close requested")
		return false
	}

	if r.drainReloads() {
		r.reload()
	}

	r.state.Merge(r.poller.Poll())

	elapsed := ctx.Time() - r.start
	r.compose(float32(elapsed))
	return true
}

// compose writes every uniform of the active scene and draws one frame.
func (r *Renderer) compose(elapsed float32) {
	gpu := r.opts.GPU
	ctx := r.opts.Context
	p := r.current.Program
	table := r.current.Table

	width, height := ctx.GetFramebufferSize()
	gpu.UseProgram(p.ID)
	p.SetVec2(gpu, shader.ResolutionUniform, float32(width), float32(height))
	p.SetFloat(gpu, shader.TimeUniform, elapsed)

	if r.meter != nil {
		levels := r.meter.Poll()
		p.SetFloat(gpu, audio.LevelUniform, levels.Level)
		p.SetFloat(gpu, audio.BassUniform, levels.Bass)
		p.SetFloat(gpu, audio.MidUniform, levels.Mid)
		p.SetFloat(gpu, audio.TrebleUniform, levels.Treble)
	}

	for _, v := range r.state.Resolve(table) {
		p.SetFloat(gpu, v.Uniform, r.controllerValue(v.Raw))
	}

	gpu.DrawQuad(width, height)
	ctx.EndFrame()
}

func (r *Renderer) controllerValue(raw uint8) float32 {
	if r.opts.Config.RawValues {
		return float32(raw)
	}
	return inputs.Normalize(raw)
}

// Run steps until a close is requested.
func (r *Renderer) Run() {
	frames := 0
	for r.Step() {
		frames++
	}
	slog.Debug("render loop finished", "frames", frames, "loads", r.loads)
}

// Shutdown closes devices and releases every GPU resource. It may be
// called after a failed Start.
func (r *Renderer) Shutdown() {
	if r.closed {
		return
	}
	r.closed = true
	r.phase = Stopping

	if r.poller != nil {
		r.poller.Close()
	}
	if r.meter != nil {
		r.meter.Stop()
	}
	r.install(nil)
	r.opts.GPU.Destroy()
	r.opts.Context.Shutdown()
}

func (r *Renderer) Phase() Phase { return r.phase }

// Scene returns the active scene, or nil before the first load.
func (r *Renderer) Scene() *Scene { return r.current }

// Loads counts load attempts, successful or not.
func (r *Renderer) Loads() int { return r.loads }

// Value returns the latest raw value seen for key.
func (r *Renderer) Value(key inputs.ControllerKey) (uint8, bool) {
	return r.state.Value(key)
}
