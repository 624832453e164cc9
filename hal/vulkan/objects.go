package vulkan

import (
	"github.com/andewx/framevk/hal"
	vk "github.com/vulkan-go/vulkan"
)

type swapchain struct {
	device vk.Device
	handle vk.Swapchain
	extent vk.Extent2D
}

func (s *swapchain) Images() ([]hal.Image, error) {
	var count uint32
	ret := vk.GetSwapchainImages(s.device, s.handle, &count, nil)
	if isError(ret) {
		return nil, NewError(ret)
	}
	handles := make([]vk.Image, count)
	ret = vk.GetSwapchainImages(s.device, s.handle, &count, handles)
	if isError(ret) {
		return nil, NewError(ret)
	}
	images := make([]hal.Image, count)
	for i := range images {
		images[i] = &image{handle: handles[i], extent: s.extent}
	}
	return images, nil
}

func (s *swapchain) AcquireNextImage(timeout uint64, signal hal.Semaphore) (uint32, error) {
	var index uint32
	ret := vk.AcquireNextImage(s.device, s.handle, timeout, semaphoreOf(signal), vk.Fence(vk.NullHandle), &index)
	return index, NewError(ret)
}

func (s *swapchain) Destroy() {
	vk.DestroySwapchain(s.device, s.handle, nil)
}

type image struct {
	handle vk.Image
	extent vk.Extent2D
}

func (i *image) Extent() vk.Extent2D { return i.extent }

type imageView struct {
	device vk.Device
	handle vk.ImageView
}

func (v *imageView) Destroy() { vk.DestroyImageView(v.device, v.handle, nil) }

type renderPass struct {
	device vk.Device
	handle vk.RenderPass
}

func (r *renderPass) Destroy() { vk.DestroyRenderPass(r.device, r.handle, nil) }

type framebuffer struct {
	device vk.Device
	handle vk.Framebuffer
}

func (f *framebuffer) Destroy() { vk.DestroyFramebuffer(f.device, f.handle, nil) }

type shaderModule struct {
	device vk.Device
	handle vk.ShaderModule
}

func (m *shaderModule) Destroy() { vk.DestroyShaderModule(m.device, m.handle, nil) }

type pipelineLayout struct {
	device vk.Device
	handle vk.PipelineLayout
}

func (l *pipelineLayout) Destroy() { vk.DestroyPipelineLayout(l.device, l.handle, nil) }

type pipeline struct {
	device vk.Device
	handle vk.Pipeline
}

func (p *pipeline) Destroy() { vk.DestroyPipeline(p.device, p.handle, nil) }

type fence struct {
	device vk.Device
	handle vk.Fence
}

func (f *fence) Destroy() { vk.DestroyFence(f.device, f.handle, nil) }

func fenceOf(f hal.Fence) vk.Fence {
	if f == nil {
		return vk.Fence(vk.NullHandle)
	}
	return f.(*fence).handle
}

func fenceHandles(fences []hal.Fence) []vk.Fence {
	handles := make([]vk.Fence, len(fences))
	for i := range fences {
		handles[i] = fenceOf(fences[i])
	}
	return handles
}

type semaphore struct {
	device vk.Device
	handle vk.Semaphore
}

func (s *semaphore) Destroy() { vk.DestroySemaphore(s.device, s.handle, nil) }

func semaphoreOf(s hal.Semaphore) vk.Semaphore {
	if s == nil {
		return vk.NullSemaphore
	}
	return s.(*semaphore).handle
}

func semaphoreHandles(sems []hal.Semaphore) []vk.Semaphore {
	handles := make([]vk.Semaphore, len(sems))
	for i := range sems {
		handles[i] = semaphoreOf(sems[i])
	}
	return handles
}
