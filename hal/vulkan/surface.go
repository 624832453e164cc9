package vulkan

import (
	"github.com/andewx/framevk/hal"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type surface struct {
	instance vk.Instance
	handle   vk.Surface
}

// CreateWindowSurface creates a surface presenting to window.
func CreateWindowSurface(inst hal.Instance, window *glfw.Window) (hal.Surface, error) {
	i := inst.(*instance)
	ptr, err := window.CreateWindowSurface(i.handle, nil)
	if err != nil {
		return nil, errors.Wrap(err, "vulkan: create window surface")
	}
	return &surface{instance: i.handle, handle: vk.SurfaceFromPointer(ptr)}, nil
}

func (s *surface) Destroy() {
	if s.handle != vk.NullSurface {
		vk.DestroySurface(s.instance, s.handle, nil)
		s.handle = vk.NullSurface
	}
}

func surfaceOf(s hal.Surface) vk.Surface {
	if s == nil {
		return vk.NullSurface
	}
	return s.(*surface).handle
}
