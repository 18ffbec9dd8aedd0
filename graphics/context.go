package graphics

import "fmt"

// Context defines the interface for the window/surface the runtime draws into.
type Context interface {
	MakeCurrent()
	Shutdown()
	// PollEvents processes pending window events.
	PollEvents()
	// ShouldClose reports a close request or escape key press.
	ShouldClose() bool
	// EndFrame presents the frame that was just drawn.
	EndFrame()
	GetFramebufferSize() (int, int)
	// Time returns monotonic seconds since the context was created.
	Time() float64
}

// GPU defines the drawing primitives the runtime needs from the graphics API.
// Program handles are opaque; location -1 means the uniform is not active.
type GPU interface {
	// NewProgram compiles and links a program. Compile and link failures
	// are returned as *CompileError.
	NewProgram(vertexSource, fragmentSource string) (uint32, error)
	UniformLocation(program uint32, name string) int32
	UseProgram(program uint32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
	// DrawQuad clears the viewport and draws one full-screen quad.
	DrawQuad(width, height int)
	DeleteProgram(program uint32)
	// Destroy releases resources owned by the GPU itself.
	Destroy()
}

// CompileError carries the shader compiler or linker diagnostic verbatim.
type CompileError struct {
	Stage string // "vertex", "fragment", "link" or "translate"
	Log   string
}

func (e *CompileError) Error() string {
	if e.Stage == "link" {
		return fmt.Sprintf("failed to link program: %s", e.Log)
	}
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}
