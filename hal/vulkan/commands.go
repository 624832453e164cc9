package vulkan

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type commandPool struct {
	device vk.Device
	handle vk.CommandPool
}

func (p *commandPool) Allocate(level vk.CommandBufferLevel, count uint32) ([]hal.CommandBuffer, error) {
	handles := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(p.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.handle,
		Level:              level,
		CommandBufferCount: count,
	}, handles)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: allocate command buffers")
	}
	buffers := make([]hal.CommandBuffer, count)
	for i := range handles {
		buffers[i] = &commandBuffer{handle: handles[i]}
	}
	return buffers, nil
}

func (p *commandPool) Reset() error {
	return NewError(vk.ResetCommandPool(p.device, p.handle, 0))
}

func (p *commandPool) Destroy() {
	vk.DestroyCommandPool(p.device, p.handle, nil)
}

type commandBuffer struct {
	handle vk.CommandBuffer
}

func (c *commandBuffer) Begin(flags vk.CommandBufferUsageFlags) error {
	ret := vk.BeginCommandBuffer(c.handle, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	})
	return errors.Wrap(NewError(ret), "vulkan: begin command buffer")
}

func (c *commandBuffer) End() error {
	return errors.Wrap(NewError(vk.EndCommandBuffer(c.handle)), "vulkan: end command buffer")
}

func (c *commandBuffer) BeginRenderPass(pass hal.RenderPass, fb hal.Framebuffer, area vk.Rect2D, clearColor [4]float32) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue(clearColor[:]),
	}
	vk.CmdBeginRenderPass(c.handle, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass.(*renderPass).handle,
		Framebuffer:     fb.(*framebuffer).handle,
		RenderArea:      area,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
}

func (c *commandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.handle)
}

func (c *commandBuffer) BindPipeline(p hal.Pipeline) {
	vk.CmdBindPipeline(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).handle)
}

func (c *commandBuffer) BindVertexBuffers(first uint32, buffers []hal.Buffer, offsets []vk.DeviceSize) {
	handles := make([]vk.Buffer, len(buffers))
	for i := range buffers {
		handles[i] = buffers[i].(*buffer).handle
	}
	vk.CmdBindVertexBuffers(c.handle, first, uint32(len(handles)), handles, offsets)
}

func (c *commandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *commandBuffer) CopyBuffer(src, dst hal.Buffer, regions []vk.BufferCopy) {
	vk.CmdCopyBuffer(c.handle, src.(*buffer).handle, dst.(*buffer).handle, uint32(len(regions)), regions)
}

type queue struct {
	handle vk.Queue
}

func (q *queue) Submit(submits []hal.SubmitInfo, f hal.Fence) error {
	infos := make([]vk.SubmitInfo, len(submits))
	for i, s := range submits {
		cmds := make([]vk.CommandBuffer, len(s.CommandBuffers))
		for j := range s.CommandBuffers {
			cmds[j] = s.CommandBuffers[j].(*commandBuffer).handle
		}
		infos[i] = vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   uint32(len(s.WaitSemaphores)),
			PWaitSemaphores:      semaphoreHandles(s.WaitSemaphores),
			PWaitDstStageMask:    s.WaitStages,
			CommandBufferCount:   uint32(len(cmds)),
			PCommandBuffers:      cmds,
			SignalSemaphoreCount: uint32(len(s.SignalSemaphores)),
			PSignalSemaphores:    semaphoreHandles(s.SignalSemaphores),
		}
	}
	ret := vk.QueueSubmit(q.handle, uint32(len(infos)), infos, fenceOf(f))
	return errors.Wrap(NewError(ret), "vulkan: queue submit")
}

func (q *queue) Present(info *hal.PresentInfo) error {
	ret := vk.QueuePresent(q.handle, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    semaphoreHandles(info.WaitSemaphores),
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{info.Swapchain.(*swapchain).handle},
		PImageIndices:      []uint32{info.ImageIndex},
	})
	return NewError(ret)
}

func (q *queue) WaitIdle() error {
	return NewError(vk.QueueWaitIdle(q.handle))
}
