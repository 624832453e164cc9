package gputest

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const swapchainExtension = "VK_KHR_swapchain"

// PhysicalDevice is a fake GPU. Its exported fields may be changed
// between calls, for instance to resize the surface.
type PhysicalDevice struct {
	Props          hal.DeviceProperties
	Families       []hal.QueueFamily
	PresentSupport []bool
	Memory         []hal.MemoryType
	Exts           []string

	Caps    vk.SurfaceCapabilities
	Formats []vk.SurfaceFormat
	Modes   []vk.PresentMode

	drv *Driver
}

// NewGPU returns a device with one graphics family that can present,
// device local and host visible memory, and a 800x600 surface
// accepting 2 to 8 images.
func NewGPU(name string, t vk.PhysicalDeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: hal.DeviceProperties{
			Name:       name,
			Type:       t,
			APIVersion: vk.Version(vk.MakeVersion(1, 0, 0)),
		},
		Families: []hal.QueueFamily{{
			Flags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit),
			Count: 1,
		}},
		PresentSupport: []bool{true},
		Memory: []hal.MemoryType{
			{Flags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
			{Flags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit), Heap: 1},
			{Flags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit | vk.MemoryPropertyHostCachedBit), Heap: 1},
		},
		Exts: []string{swapchainExtension},
		Caps: vk.SurfaceCapabilities{
			MinImageCount:           2,
			MaxImageCount:           8,
			CurrentExtent:           vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:          vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:          vk.Extent2D{Width: 4096, Height: 4096},
			MaxImageArrayLayers:     1,
			SupportedTransforms:     vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit),
			CurrentTransform:        vk.SurfaceTransformIdentityBit,
			SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit),
			SupportedUsageFlags:     vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		Modes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

// SetExtent changes the extent the surface reports.
func (p *PhysicalDevice) SetExtent(width, height uint32) {
	p.Caps.CurrentExtent = vk.Extent2D{Width: width, Height: height}
}

func (p *PhysicalDevice) Properties() hal.DeviceProperties { return p.Props }
func (p *PhysicalDevice) QueueFamilies() []hal.QueueFamily  { return p.Families }
func (p *PhysicalDevice) MemoryTypes() []hal.MemoryType     { return p.Memory }

func (p *PhysicalDevice) Extensions() ([]string, error) {
	return p.Exts, nil
}

func checkSurface(s hal.Surface) error {
	fs, ok := s.(*Surface)
	if !ok || fs == nil {
		return errors.New("gputest: not a fake surface")
	}
	return fs.alive("query")
}

func (p *PhysicalDevice) SurfaceSupport(family uint32, s hal.Surface) (bool, error) {
	if err := checkSurface(s); err != nil {
		return false, err
	}
	if int(family) >= len(p.Families) {
		return false, errors.Errorf("gputest: family %d out of range", family)
	}
	return int(family) < len(p.PresentSupport) && p.PresentSupport[family], nil
}

func (p *PhysicalDevice) SurfaceCapabilities(s hal.Surface) (vk.SurfaceCapabilities, error) {
	return p.Caps, checkSurface(s)
}

func (p *PhysicalDevice) SurfaceFormats(s hal.Surface) ([]vk.SurfaceFormat, error) {
	return p.Formats, checkSurface(s)
}

func (p *PhysicalDevice) PresentModes(s hal.Surface) ([]vk.PresentMode, error) {
	return p.Modes, checkSurface(s)
}

func (p *PhysicalDevice) CreateDevice(info *hal.DeviceInfo) (hal.Device, error) {
	seen := make(map[uint32]bool)
	for _, f := range info.QueueFamilies {
		if int(f) >= len(p.Families) {
			return nil, errors.Errorf("gputest: family %d out of range", f)
		}
		if seen[f] {
			p.drv.violation("queue family %d requested twice", f)
			return nil, errors.Errorf("gputest: duplicate queue family %d", f)
		}
		seen[f] = true
	}
	for _, ext := range info.Extensions {
		if !contains(p.Exts, ext) {
			return nil, errors.Errorf("gputest: extension %s not supported", ext)
		}
	}
	p.drv.DeviceInfos = append(p.drv.DeviceInfos, *info)

	d := &Device{
		object: p.drv.newObject("device"),
		gpu:    p,
		queues: make(map[uint32]*Queue),
	}
	for f := range seen {
		d.queues[f] = &Queue{dev: d, family: f}
	}
	return d, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
