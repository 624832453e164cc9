package framevk

import (
	"testing"

	"github.com/andewx/framevk/internal/gputest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgba := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	for _, formats := range [][]vk.SurfaceFormat{
		{srgb, unorm, rgba},
		{unorm, srgb, rgba},
		{unorm, rgba, srgb},
	} {
		got, err := ChooseSurfaceFormat(formats)
		require.NoError(t, err)
		assert.Equal(t, srgb, got)
	}

	got, err := ChooseSurfaceFormat([]vk.SurfaceFormat{rgba, unorm})
	require.NoError(t, err)
	assert.Equal(t, rgba, got)

	_, err = ChooseSurfaceFormat(nil)
	assert.True(t, errors.Is(err, ErrNoSurfaceFormats))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox,
		ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo,
		ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 640, Height: 480},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1000, Height: 800},
	}
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480},
		ChooseExtent(caps, vk.Extent2D{Width: 1, Height: 1}))

	caps.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 500, Height: 400},
		ChooseExtent(caps, vk.Extent2D{Width: 500, Height: 400}))
	assert.Equal(t, vk.Extent2D{Width: 1000, Height: 100},
		ChooseExtent(caps, vk.Extent2D{Width: 5000, Height: 10}))
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want uint32
	}{
		{2, 8, 3},
		{2, 3, 3},
		{3, 3, 3},
		{2, 0, 3},
		{1, 1, 1},
	}
	for _, tt := range tests {
		caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		got := ChooseImageCount(caps)
		assert.Equal(t, tt.want, got, "min %d max %d", tt.min, tt.max)
		assert.GreaterOrEqual(t, got, tt.min)
		if tt.max > 0 {
			assert.LessOrEqual(t, got, tt.max)
		}
	}
}

func TestChooseSharingModeExclusive(t *testing.T) {
	mode, indices := ChooseSharingMode(QueueFamilyIndices{Graphics: 2, Present: 2, HasGraphics: true, HasPresent: true})
	assert.Equal(t, vk.SharingModeExclusive, mode)
	assert.Nil(t, indices)
}

func TestTransformAndCompositeAlpha(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		SupportedTransforms:     vk.SurfaceTransformFlags(vk.SurfaceTransformRotate90Bit),
		CurrentTransform:        vk.SurfaceTransformRotate90Bit,
		SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit | vk.CompositeAlphaPostMultipliedBit),
	}
	assert.Equal(t, vk.SurfaceTransformRotate90Bit, choosePreTransform(caps))
	assert.Equal(t, vk.CompositeAlphaPostMultipliedBit, chooseCompositeAlpha(caps))

	caps.SupportedTransforms |= vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit)
	caps.SupportedCompositeAlpha |= vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit)
	assert.Equal(t, vk.SurfaceTransformIdentityBit, choosePreTransform(caps))
	assert.Equal(t, vk.CompositeAlphaOpaqueBit, chooseCompositeAlpha(caps))
}

func TestNewSwapchainContext(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()

	sc, err := NewSwapchainContext(dc, vk.Extent2D{Width: 800, Height: 600}, DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, sc.Format.Format)
	assert.Equal(t, vk.PresentModeMailbox, sc.PresentMode)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, sc.Extent)
	assert.Equal(t, 3, sc.ImageCount())

	require.Len(t, drv.Swapchains, 1)
	info := drv.Swapchains[0]
	assert.Equal(t, vk.SharingModeExclusive, info.SharingMode)
	assert.Equal(t, vk.SurfaceTransformIdentityBit, info.PreTransform)
	assert.Equal(t, vk.CompositeAlphaOpaqueBit, info.CompositeAlpha)
	assert.True(t, info.Clipped)
	assert.Nil(t, info.OldSwapchain)

	sc.Destroy()
	assert.Equal(t, 0, drv.Live()["swapchain"])
}

func TestNewSwapchainContextZeroExtent(t *testing.T) {
	gpu := gputest.NewGPU("fake", vk.PhysicalDeviceTypeDiscreteGpu)
	gpu.SetExtent(0, 0)
	drv, dc := newTestDevice(t, gpu)
	defer dc.Destroy()

	_, err := NewSwapchainContext(dc, vk.Extent2D{Width: 800, Height: 600}, DiscardLogger())
	assert.True(t, errors.Is(err, ErrZeroExtent))
	assert.Empty(t, drv.Swapchains)
	assert.Empty(t, drv.Violations())
}
