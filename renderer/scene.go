package renderer

import (
	"github.com/richinsley/goshaderlive/graphics"
	"github.com/richinsley/goshaderlive/inputs"
	"github.com/richinsley/goshaderlive/shader"
)

// Scene is the program and the mapping table it was loaded against. The
// renderer swaps the pair as one value; neither half is replaced alone.
type Scene struct {
	Program *shader.Program
	Table   *inputs.MappingTable
}

// Release frees the scene's GPU program. Safe to call more than once.
func (s *Scene) Release(gpu graphics.GPU) {
	if s == nil {
		return
	}
	s.Program.Release(gpu)
}
