package shader

import "github.com/richinsley/goshaderlive/graphics"

// Program is a linked GPU program plus the uniform locations resolved when
// it was loaded.
type Program struct {
	ID        uint32
	locations map[string]int32
	released  bool
}

// Location returns the uniform location for name, or -1 when the program
// does not use it or it was never requested.
func (p *Program) Location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

// Resolved reports whether writes to name reach the program.
func (p *Program) Resolved(name string) bool {
	return p.Location(name) >= 0
}

// SetFloat writes a scalar uniform; unresolved names are a no-op.
func (p *Program) SetFloat(gpu graphics.GPU, name string, v float32) {
	if loc := p.Location(name); loc >= 0 {
		gpu.Uniform1f(loc, v)
	}
}

// SetVec2 writes a 2-component uniform; unresolved names are a no-op.
func (p *Program) SetVec2(gpu graphics.GPU, name string, x, y float32) {
	if loc := p.Location(name); loc >= 0 {
		gpu.Uniform2f(loc, x, y)
	}
}

// Release deletes the GPU program. Calling it again does nothing.
func (p *Program) Release(gpu graphics.GPU) {
	if p == nil || p.released {
		return
	}
	gpu.DeleteProgram(p.ID)
	p.released = true
}

func (p *Program) Released() bool {
	return p.released
}
