package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

//RenderPassInfo describes a single subpass pass over one color attachment that is cleared and left ready for presentation
func RenderPassInfo(format vk.Format) *vk.RenderPassCreateInfo {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorReferences)),
		PColorAttachments:    colorReferences,
	}

	//Wait for the acquired image before writing to it
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	return &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

// RenderTargets holds one view and one framebuffer per swapchain
// image together with the render pass they are compatible with.
type RenderTargets struct {
	RenderPass   hal.RenderPass
	Views        []hal.ImageView
	Framebuffers []hal.Framebuffer
	Extent       vk.Extent2D
}

func NewRenderTargets(dev hal.Device, sc *SwapchainContext) (rt *RenderTargets, err error) {
	rt = &RenderTargets{Extent: sc.Extent}
	defer func() {
		if err != nil {
			rt.Destroy()
			rt = nil
		}
	}()

	for i, img := range sc.Images {
		view, err := dev.CreateImageView(img, sc.Format.Format)
		if err != nil {
			return rt, errors.Wrapf(err, "create view for image %d", i)
		}
		rt.Views = append(rt.Views, view)
	}

	rt.RenderPass, err = dev.CreateRenderPass(RenderPassInfo(sc.Format.Format))
	if err != nil {
		return rt, errors.Wrap(err, "create render pass")
	}

	for i, view := range rt.Views {
		fb, err := dev.CreateFramebuffer(&hal.FramebufferInfo{
			RenderPass:  rt.RenderPass,
			Attachments: []hal.ImageView{view},
			Width:       sc.Extent.Width,
			Height:      sc.Extent.Height,
			Layers:      1,
		})
		if err != nil {
			return rt, errors.Wrapf(err, "create framebuffer %d", i)
		}
		rt.Framebuffers = append(rt.Framebuffers, fb)
	}
	return rt, nil
}

func (rt *RenderTargets) Count() int { return len(rt.Framebuffers) }

// Destroy releases framebuffers, then the render pass, then the
// views.
func (rt *RenderTargets) Destroy() {
	for _, fb := range rt.Framebuffers {
		fb.Destroy()
	}
	rt.Framebuffers = nil
	if rt.RenderPass != nil {
		rt.RenderPass.Destroy()
		rt.RenderPass = nil
	}
	for _, v := range rt.Views {
		v.Destroy()
	}
	rt.Views = nil
}
