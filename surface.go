package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceContext wraps the window surface. It outlives every
// swapchain created for it.
type SurfaceContext struct {
	surface hal.Surface
}

// SurfaceSupport is what a physical device reports for a surface.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

func NewSurfaceContext(s hal.Surface) *SurfaceContext {
	return &SurfaceContext{surface: s}
}

func (s *SurfaceContext) Handle() hal.Surface { return s.surface }

// Query reads the current capabilities, formats and present modes.
// Capabilities change with the window so it is queried on every
// swapchain build.
func (s *SurfaceContext) Query(gpu hal.PhysicalDevice) (SurfaceSupport, error) {
	var support SurfaceSupport
	var err error
	if support.Capabilities, err = gpu.SurfaceCapabilities(s.surface); err != nil {
		return support, errors.Wrap(err, "query surface capabilities")
	}
	if support.Formats, err = gpu.SurfaceFormats(s.surface); err != nil {
		return support, errors.Wrap(err, "query surface formats")
	}
	if support.PresentModes, err = gpu.PresentModes(s.surface); err != nil {
		return support, errors.Wrap(err, "query present modes")
	}
	return support, nil
}

// SupportsPresent reports whether family can present to the surface.
func (s *SurfaceContext) SupportsPresent(gpu hal.PhysicalDevice, family uint32) (bool, error) {
	return gpu.SurfaceSupport(family, s.surface)
}

func (s *SurfaceContext) Destroy() {
	if s.surface != nil {
		s.surface.Destroy()
		s.surface = nil
	}
}
