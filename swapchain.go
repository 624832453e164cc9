package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB anywhere in formats,
// otherwise the first format reported.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, ErrNoSurfaceFormats
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode picks mailbox when offered. FIFO is always
// available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's current extent, or the window
// framebuffer size clamped to the surface limits when the surface
// leaves it to the swapchain.
func ChooseExtent(caps vk.SurfaceCapabilities, framebuffer vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(framebuffer.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(framebuffer.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum. A max
// of 0 means there is no upper limit.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSharingMode shares images between both families when they
// differ.
func ChooseSharingMode(families QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if families.Graphics != families.Present {
		return vk.SharingModeConcurrent, []uint32{families.Graphics, families.Present}
	}
	return vk.SharingModeExclusive, nil
}

func choosePreTransform(caps vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return caps.CurrentTransform
}

func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, bit := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SwapchainContext is the presentable image chain. Its images belong
// to the chain and are released with it.
type SwapchainContext struct {
	Swapchain   hal.Swapchain
	Images      []hal.Image
	Format      vk.SurfaceFormat
	Extent      vk.Extent2D
	PresentMode vk.PresentMode
}

// NewSwapchainContext builds a chain for the device's surface.
// framebuffer is the window size in pixels, used when the surface
// does not dictate the extent.
func NewSwapchainContext(dc *DeviceContext, framebuffer vk.Extent2D, l *Logger) (*SwapchainContext, error) {
	l = orDiscard(l)
	support, err := dc.Surface.Query(dc.Physical)
	if err != nil {
		return nil, err
	}
	format, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return nil, err
	}
	caps := support.Capabilities
	sharing, families := ChooseSharingMode(dc.Families)

	sc := &SwapchainContext{
		Format:      format,
		Extent:      ChooseExtent(caps, framebuffer),
		PresentMode: ChoosePresentMode(support.PresentModes),
	}
	if sc.Extent.Width == 0 || sc.Extent.Height == 0 {
		return nil, ErrZeroExtent
	}
	sc.Swapchain, err = dc.Device.CreateSwapchain(&hal.SwapchainInfo{
		Surface:        dc.Surface.Handle(),
		MinImageCount:  ChooseImageCount(caps),
		Format:         format,
		Extent:         sc.Extent,
		Usage:          vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		SharingMode:    sharing,
		QueueFamilies:  families,
		PreTransform:   choosePreTransform(caps),
		CompositeAlpha: chooseCompositeAlpha(caps),
		PresentMode:    sc.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	sc.Images, err = sc.Swapchain.Images()
	if err != nil {
		sc.Swapchain.Destroy()
		return nil, errors.Wrap(err, "get swapchain images")
	}
	l.Info.Printf("swapchain: %d images, %dx%d, format %d, present mode %d",
		len(sc.Images), sc.Extent.Width, sc.Extent.Height, sc.Format.Format, sc.PresentMode)
	return sc, nil
}

func (sc *SwapchainContext) ImageCount() int { return len(sc.Images) }

// Destroy destroys the chain. Views onto its images must already be
// gone.
func (sc *SwapchainContext) Destroy() {
	if sc.Swapchain != nil {
		sc.Swapchain.Destroy()
		sc.Swapchain = nil
	}
	sc.Images = nil
}
