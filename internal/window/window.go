// Package window wraps the GLFW window the renderer presents to.
// Every function must be called from the main thread.
package window

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

// Handler receives the events of the loop run by Window.Run.
type Handler interface {
	// OnResize is called with the new framebuffer size in pixels.
	OnResize(width, height int)
	// OnDrawFrame is called once per loop iteration. An error stops
	// the loop.
	OnDrawFrame() error
}

func Init() error {
	return errors.Wrap(glfw.Init(), "glfw init")
}

func Terminate() {
	glfw.Terminate()
}

type Window struct {
	handle *glfw.Window
}

// New opens a resizable window with no client API, ready for a
// Vulkan surface.
func New(title string, width, height int) (*Window, error) {
	if !glfw.VulkanSupported() {
		return nil, errors.New("glfw: vulkan is not supported")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)

	handle, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "glfw create window")
	}
	return &Window{handle: handle}, nil
}

func (w *Window) Handle() *glfw.Window { return w.handle }

// RequiredExtensions lists the instance extensions a surface for
// this window needs.
func (w *Window) RequiredExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

func (w *Window) FramebufferSize() (int, int) {
	return w.handle.GetFramebufferSize()
}

// Run polls events and draws until the window is closed, Escape is
// pressed or h fails. While the framebuffer has no area it blocks on
// events instead of drawing.
func (w *Window) Run(h Handler) error {
	w.handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		h.OnResize(width, height)
	})
	w.handle.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if closeKey(key, action) {
			win.SetShouldClose(true)
		}
	})
	defer func() {
		w.handle.SetFramebufferSizeCallback(nil)
		w.handle.SetKeyCallback(nil)
	}()

	for !w.handle.ShouldClose() {
		if minimized(w.handle.GetFramebufferSize()) {
			glfw.WaitEvents()
			continue
		}
		glfw.PollEvents()
		if err := h.OnDrawFrame(); err != nil {
			return err
		}
	}
	return nil
}

func minimized(width, height int) bool {
	return width <= 0 || height <= 0
}

func closeKey(key glfw.Key, action glfw.Action) bool {
	return key == glfw.KeyEscape && action == glfw.Press
}

func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
}
