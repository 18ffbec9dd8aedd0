// Package glgpu implements graphics.GPU on OpenGL 4.1 core.
package glgpu

import (
	"fmt"
	"log/slog"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderlive/graphics"
)

// Two triangles covering clip space.
var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

type GPU struct {
	quadVAO uint32
	quadVBO uint32
}

// New loads the GL entry points for the current context and uploads the
// quad geometry.
func New() (*GPU, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	slog.Info("OpenGL ready", "version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	g := &GPU{}
	gl.GenVertexArrays(1, &g.quadVAO)
	gl.GenBuffers(1, &g.quadVBO)
	gl.BindVertexArray(g.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return g, nil
}

func (g *GPU) NewProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &graphics.CompileError{Stage: "link", Log: trimLog(log)}
	}
	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	return program, nil
}

func compileShader(source string, shaderType uint32, stage string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, &graphics.CompileError{Stage: stage, Log: trimLog(logText)}
	}
	return shader, nil
}

// trimLog drops the NUL padding and trailing newline of a GL info log.
func trimLog(log string) string {
	return strings.TrimRight(log, "\x00\n")
}

func (g *GPU) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (g *GPU) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (g *GPU) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (g *GPU) Uniform2f(location int32, x, y float32) {
	gl.Uniform2f(location, x, y)
}

func (g *GPU) DrawQuad(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindVertexArray(g.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

func (g *GPU) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (g *GPU) Destroy() {
	gl.DeleteVertexArrays(1, &g.quadVAO)
	gl.DeleteBuffers(1, &g.quadVBO)
}
