package glfwcontext

import (
	"fmt"
	"log/slog"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
)

const title = "goshaderlive"

// Options selects the window geometry. Width and Height of zero use 1280x720
// in a window, or the monitor's current mode when fullscreen.
type Options struct {
	Width, Height int
	// Fullscreen is the index of the monitor to cover, or nil for a window.
	Fullscreen *int
}

// Context is a GLFW window with a current OpenGL 4.1 core context.
type Context struct {
	window *glfw.Window
}

// New creates the window and makes its context current on the calling
// thread. InitGraphics must have been called.
func New(opts Options) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	width, height := opts.Width, opts.Height
	var monitor *glfw.Monitor
	if opts.Fullscreen != nil {
		var err error
		monitor, err = selectMonitor(*opts.Fullscreen)
		if err != nil {
			return nil, err
		}
		if width == 0 || height == 0 {
			mode := monitor.GetVideoMode()
			width, height = mode.Width, mode.Height
			glfw.WindowHint(glfw.RefreshRate, mode.RefreshRate)
		}
	}
	if width == 0 || height == 0 {
		width, height = 1280, 720
	}

	win, err := glfw.CreateWindow(width, height, title, monitor, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	c := &Context{window: win}
	win.SetKeyCallback(c.glfwKeyCallback)
	c.MakeCurrent()
	glfw.SwapInterval(1)
	glfw.SetTime(0)

	fbWidth, fbHeight := win.GetFramebufferSize()
	slog.Info("window created", "width", width, "height", height,
		"framebuffer", fmt.Sprintf("%dx%d", fbWidth, fbHeight), "fullscreen", monitor != nil)
	return c, nil
}

func selectMonitor(index int) (*glfw.Monitor, error) {
	monitors := glfw.GetMonitors()
	for i, m := range monitors {
		mode := m.GetVideoMode()
		slog.Info("monitor", "index", i, "name", m.GetName(),
			"mode", fmt.Sprintf("%dx%d@%d", mode.Width, mode.Height, mode.RefreshRate),
			"selected", i == index)
	}
	if index < 0 || index >= len(monitors) {
		return nil, fmt.Errorf("no monitor with index %d (%d available)", index, len(monitors))
	}
	return monitors[index], nil
}

// Monitors describes the connected monitors, in index order.
func Monitors() []string {
	var out []string
	for i, m := range glfw.GetMonitors() {
		mode := m.GetVideoMode()
		out = append(out, fmt.Sprintf("%d: %s (%dx%d@%dHz)", i, m.GetName(), mode.Width, mode.Height, mode.RefreshRate))
	}
	return out
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) PollEvents() {
	glfw.PollEvents()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// Time is reset to zero when the window is created.
func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	slog.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	slog.Debug("GLFW terminated")
}
