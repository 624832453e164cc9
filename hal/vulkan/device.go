package vulkan

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type device struct {
	handle vk.Device
	queues map[uint32]*queue
}

func (d *device) Queue(family uint32) hal.Queue {
	return d.queues[family]
}

func (d *device) WaitIdle() error {
	return NewError(vk.DeviceWaitIdle(d.handle))
}

func (d *device) Destroy() {
	if d.handle != nil {
		vk.DestroyDevice(d.handle, nil)
		d.handle = nil
	}
}

func (d *device) CreateSwapchain(info *hal.SwapchainInfo) (hal.Swapchain, error) {
	old := vk.NullSwapchain
	if info.OldSwapchain != nil {
		old = info.OldSwapchain.(*swapchain).handle
	}
	clipped := vk.False
	if info.Clipped {
		clipped = vk.True
	}

	var handle vk.Swapchain
	ret := vk.CreateSwapchain(d.handle, &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               surfaceOf(info.Surface),
		MinImageCount:         info.MinImageCount,
		ImageFormat:           info.Format.Format,
		ImageColorSpace:       info.Format.ColorSpace,
		ImageExtent:           info.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            info.Usage,
		ImageSharingMode:      info.SharingMode,
		QueueFamilyIndexCount: uint32(len(info.QueueFamilies)),
		PQueueFamilyIndices:   info.QueueFamilies,
		PreTransform:          info.PreTransform,
		CompositeAlpha:        info.CompositeAlpha,
		PresentMode:           info.PresentMode,
		Clipped:               vk.Bool32(clipped),
		OldSwapchain:          old,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create swapchain")
	}
	return &swapchain{device: d.handle, handle: handle, extent: info.Extent}, nil
}

func (d *device) CreateImageView(img hal.Image, format vk.Format) (hal.ImageView, error) {
	var handle vk.ImageView
	ret := vk.CreateImageView(d.handle, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(*image).handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create image view")
	}
	return &imageView{device: d.handle, handle: handle}, nil
}

func (d *device) CreateRenderPass(info *vk.RenderPassCreateInfo) (hal.RenderPass, error) {
	ci := *info
	ci.SType = vk.StructureTypeRenderPassCreateInfo
	ci.AttachmentCount = uint32(len(ci.PAttachments))
	ci.SubpassCount = uint32(len(ci.PSubpasses))
	ci.DependencyCount = uint32(len(ci.PDependencies))

	var handle vk.RenderPass
	ret := vk.CreateRenderPass(d.handle, &ci, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create render pass")
	}
	return &renderPass{device: d.handle, handle: handle}, nil
}

func (d *device) CreateFramebuffer(info *hal.FramebufferInfo) (hal.Framebuffer, error) {
	views := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		views[i] = v.(*imageView).handle
	}
	layers := info.Layers
	if layers == 0 {
		layers = 1
	}

	var handle vk.Framebuffer
	ret := vk.CreateFramebuffer(d.handle, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      info.RenderPass.(*renderPass).handle,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          layers,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create framebuffer")
	}
	return &framebuffer{device: d.handle, handle: handle}, nil
}

func (d *device) CreateShaderModule(code []uint32) (hal.ShaderModule, error) {
	var handle vk.ShaderModule
	ret := vk.CreateShaderModule(d.handle, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create shader module")
	}
	return &shaderModule{device: d.handle, handle: handle}, nil
}

func (d *device) CreatePipelineLayout() (hal.PipelineLayout, error) {
	var handle vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.handle, &vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create pipeline layout")
	}
	return &pipelineLayout{device: d.handle, handle: handle}, nil
}

func (d *device) CreateGraphicsPipeline(info *hal.PipelineInfo) (hal.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, s := range info.Stages {
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  s.Stage,
			Module: s.Module.(*shaderModule).handle,
			PName:  safeString(s.Entry),
		}
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(info.VertexBindings)),
		PVertexBindingDescriptions:      info.VertexBindings,
		VertexAttributeDescriptionCount: uint32(len(info.VertexAttributes)),
		PVertexAttributeDescriptions:    info.VertexAttributes,
	}
	assembly := info.InputAssembly
	assembly.SType = vk.StructureTypePipelineInputAssemblyStateCreateInfo
	viewport := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{info.Viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{info.Scissor},
	}
	raster := info.Rasterizer
	raster.SType = vk.StructureTypePipelineRasterizationStateCreateInfo
	multisample := info.Multisample
	multisample.SType = vk.StructureTypePipelineMultisampleStateCreateInfo
	depth := info.DepthStencil
	depth.SType = vk.StructureTypePipelineDepthStencilStateCreateInfo
	blend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{info.ColorBlendAttachment},
	}

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(d.handle, vk.PipelineCache(vk.NullHandle), 1, []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewport,
		PRasterizationState: &raster,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depth,
		PColorBlendState:    &blend,
		Layout:              info.Layout.(*pipelineLayout).handle,
		RenderPass:          info.RenderPass.(*renderPass).handle,
		Subpass:             info.Subpass,
		BasePipelineIndex:   -1,
	}}, nil, pipelines)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create graphics pipeline")
	}
	return &pipeline{device: d.handle, handle: pipelines[0]}, nil
}

func (d *device) CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (hal.CommandPool, error) {
	var handle vk.CommandPool
	ret := vk.CreateCommandPool(d.handle, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            flags,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create command pool")
	}
	return &commandPool{device: d.handle, handle: handle}, nil
}

func (d *device) CreateFence(signaled bool) (hal.Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var handle vk.Fence
	ret := vk.CreateFence(d.handle, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create fence")
	}
	return &fence{device: d.handle, handle: handle}, nil
}

func (d *device) CreateSemaphore() (hal.Semaphore, error) {
	var handle vk.Semaphore
	ret := vk.CreateSemaphore(d.handle, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create semaphore")
	}
	return &semaphore{device: d.handle, handle: handle}, nil
}

func (d *device) WaitForFences(fences []hal.Fence, timeout uint64) error {
	handles := fenceHandles(fences)
	return NewError(vk.WaitForFences(d.handle, uint32(len(handles)), handles, vk.True, timeout))
}

func (d *device) ResetFences(fences []hal.Fence) error {
	handles := fenceHandles(fences)
	return NewError(vk.ResetFences(d.handle, uint32(len(handles)), handles))
}

func (d *device) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (hal.Buffer, error) {
	var handle vk.Buffer
	ret := vk.CreateBuffer(d.handle, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrap(NewError(ret), "vulkan: create buffer")
	}
	return &buffer{device: d.handle, handle: handle, size: size}, nil
}

func (d *device) AllocateMemory(size vk.DeviceSize, memoryType uint32) (hal.Memory, error) {
	var handle vk.DeviceMemory
	ret := vk.AllocateMemory(d.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  size,
		MemoryTypeIndex: memoryType,
	}, nil, &handle)
	if isError(ret) {
		return nil, errors.Wrapf(NewError(ret), "vulkan: allocate %d bytes of memory type %d", size, memoryType)
	}
	return &memory{device: d.handle, handle: handle}, nil
}
