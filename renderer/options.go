package renderer

import (
	"io"

	"github.com/richinsley/goshaderlive/audio"
	"github.com/richinsley/goshaderlive/config"
	"github.com/richinsley/goshaderlive/graphics"
	"github.com/richinsley/goshaderlive/inputs"
	"github.com/richinsley/goshaderlive/shader"
)

// Options wires the renderer to its collaborators.
type Options struct {
	ShaderPath string
	Config     *config.Config // nil means no controller mappings

	Context graphics.Context
	GPU     graphics.GPU
	// Translator, when set, rewrites every fragment source before compiling.
	Translator shader.Translator

	// Reloads carries change notifications for ShaderPath.
	Reloads <-chan struct{}
	// Devices opens controller devices by id; nil opens none.
	Devices inputs.Opener
	// Audio feeds the u_audio_* uniforms; nil disables them.
	Audio audio.AudioDevice

	// Diagnostics receives compiler output verbatim. Defaults to stderr.
	Diagnostics io.Writer
}
