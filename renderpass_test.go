package framevk

import (
	"testing"

	"github.com/andewx/framevk/internal/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestRenderPassInfo(t *testing.T) {
	info := RenderPassInfo(vk.FormatB8g8r8a8Srgb)

	require.Len(t, info.PAttachments, 1)
	color := info.PAttachments[0]
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, color.Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, color.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, color.StoreOp)
	assert.Equal(t, vk.ImageLayoutUndefined, color.InitialLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, color.FinalLayout)

	require.Len(t, info.PSubpasses, 1)
	assert.Equal(t, uint32(1), info.PSubpasses[0].ColorAttachmentCount)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, info.PSubpasses[0].PColorAttachments[0].Layout)

	require.Len(t, info.PDependencies, 1)
	dep := info.PDependencies[0]
	assert.Equal(t, uint32(vk.SubpassExternal), dep.SrcSubpass)
	assert.Equal(t, uint32(0), dep.DstSubpass)
	stage := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	assert.Equal(t, stage, dep.SrcStageMask)
	assert.Equal(t, stage, dep.DstStageMask)
	assert.Equal(t, vk.AccessFlags(0), dep.SrcAccessMask)
	assert.Equal(t, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), dep.DstAccessMask)
}

func TestNewRenderTargets(t *testing.T) {
	drv, dc := newTestDevice(t)
	defer dc.Destroy()
	sc, err := NewSwapchainContext(dc, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	defer sc.Destroy()

	rt, err := NewRenderTargets(dc.Device, sc)
	require.NoError(t, err)
	assert.Equal(t, sc.ImageCount(), rt.Count())
	assert.Len(t, rt.Views, sc.ImageCount())
	for _, v := range rt.Views {
		assert.Equal(t, sc.Format.Format, v.(*gputest.ImageView).Format)
	}
	for _, fb := range drv.Framebuffers {
		assert.Equal(t, uint32(800), fb.Width)
		assert.Equal(t, uint32(600), fb.Height)
		assert.Equal(t, uint32(1), fb.Layers)
		assert.Len(t, fb.Attachments, 1)
	}
	require.Len(t, drv.RenderPasses, 1)
	assert.Equal(t, sc.Format.Format, drv.RenderPasses[0].PAttachments[0].Format)

	rt.Destroy()
	assert.Equal(t, 0, drv.Live()["framebuffer"])
	assert.Equal(t, 0, drv.Live()["imageview"])
	assert.Equal(t, 0, drv.Live()["renderpass"])
	assert.Empty(t, drv.Violations())
}
