// Package graphicstest provides in-memory graphics.Context and graphics.GPU
// implementations for tests.
package graphicstest

import (
	"regexp"
	"strings"

	"github.com/richinsley/goshaderlive/graphics"
)

// CompileFailMarker makes GPU.NewProgram fail when found in fragment source.
const CompileFailMarker = "#error"

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*;`)

// UniformWrite records one uniform write.
type UniformWrite struct {
	Program  uint32
	Location int32
	Values   []float32
}

// GPU fakes program compilation. Uniform locations are assigned to the
// uniforms declared in the fragment source, in declaration order.
type GPU struct {
	Programs  map[uint32]map[string]int32 // live programs
	Deleted   map[uint32]int              // delete calls per program
	Compiles  int
	Writes    []UniformWrite
	Draws     int
	Destroyed bool

	current uint32
	next    uint32
}

func NewGPU() *GPU {
	return &GPU{
		Programs: make(map[uint32]map[string]int32),
		Deleted:  make(map[uint32]int),
	}
}

func (g *GPU) NewProgram(vertexSource, fragmentSource string) (uint32, error) {
	g.Compiles++
	if i := strings.Index(fragmentSource, CompileFailMarker); i >= 0 {
		return 0, &graphics.CompileError{Stage: "fragment", Log: "ERROR: 0:1: " + strings.TrimSpace(fragmentSource[i:])}
	}
	g.next++
	locations := make(map[string]int32)
	for _, m := range uniformDecl.FindAllStringSubmatch(fragmentSource, -1) {
		if _, ok := locations[m[1]]; !ok {
			locations[m[1]] = int32(len(locations))
		}
	}
	g.Programs[g.next] = locations
	return g.next, nil
}

func (g *GPU) UniformLocation(program uint32, name string) int32 {
	if loc, ok := g.Programs[program][name]; ok {
		return loc
	}
	return -1
}

func (g *GPU) UseProgram(program uint32) { g.current = program }

func (g *GPU) Current() uint32 { return g.current }

func (g *GPU) Uniform1f(location int32, v float32) {
	g.Writes = append(g.Writes, UniformWrite{Program: g.current, Location: location, Values: []float32{v}})
}

func (g *GPU) Uniform2f(location int32, x, y float32) {
	g.Writes = append(g.Writes, UniformWrite{Program: g.current, Location: location, Values: []float32{x, y}})
}

func (g *GPU) DrawQuad(width, height int) { g.Draws++ }

func (g *GPU) DeleteProgram(program uint32) {
	g.Deleted[program]++
	delete(g.Programs, program)
}

func (g *GPU) Destroy() { g.Destroyed = true }

// Value returns the last value written to the named uniform of the current
// program.
func (g *GPU) Value(name string) ([]float32, bool) {
	loc, ok := g.Programs[g.current][name]
	if !ok {
		return nil, false
	}
	for i := len(g.Writes) - 1; i >= 0; i-- {
		w := g.Writes[i]
		if w.Program == g.current && w.Location == loc {
			return w.Values, true
		}
	}
	return nil, false
}

// ResetWrites forgets recorded uniform writes.
func (g *GPU) ResetWrites() { g.Writes = nil }

// Context is a window that closes after a set number of polls.
type Context struct {
	Width, Height int
	Clock         float64
	Step          float64 // added to Clock on every EndFrame
	CloseAfter    int     // ShouldClose turns true after this many PollEvents; 0 never
	Polls         int
	Frames        int
	ShutdownCalls int
}

func (c *Context) MakeCurrent() {}

func (c *Context) Shutdown() { c.ShutdownCalls++ }

func (c *Context) PollEvents() { c.Polls++ }

func (c *Context) ShouldClose() bool {
	return c.CloseAfter > 0 && c.Polls >= c.CloseAfter
}

func (c *Context) EndFrame() {
	c.Frames++
	c.Clock += c.Step
}

func (c *Context) GetFramebufferSize() (int, int) { return c.Width, c.Height }

func (c *Context) Time() float64 { return c.Clock }
