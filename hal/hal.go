// Package hal defines the narrow set of GPU entry points the
// renderer is built on.
// Each method maps onto one Vulkan call (or a short, fixed
// sequence of them), and the value types are the ones from
// github.com/vulkan-go/vulkan, so code written against hal reads
// like plain Vulkan while staying independent of the cgo
// handles. The vulkan subpackage is the real implementation.
package hal

import vk "github.com/vulkan-go/vulkan"

// Instance is the root object of the driver.
type Instance interface {
	// PhysicalDevices enumerates the GPUs visible to the
	// instance, in the order the driver reports them.
	PhysicalDevices() ([]PhysicalDevice, error)

	// Destroy destroys the instance.
	// Every object created from it must be destroyed first.
	Destroy()
}

// DeviceProperties is a snapshot of the properties of a
// physical device.
type DeviceProperties struct {
	Name       string
	Type       vk.PhysicalDeviceType
	APIVersion vk.Version
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Flags vk.QueueFlags
	Count uint32
}

// MemoryType describes one memory type of a physical device.
type MemoryType struct {
	Flags vk.MemoryPropertyFlags
	Heap  uint32
}

// PhysicalDevice is a GPU that a Device can be created from.
type PhysicalDevice interface {
	Properties() DeviceProperties
	QueueFamilies() []QueueFamily
	MemoryTypes() []MemoryType

	// Extensions lists the device extensions the GPU supports.
	Extensions() ([]string, error)

	// SurfaceSupport reports whether queues of the given family
	// can present to surface.
	SurfaceSupport(family uint32, surface Surface) (bool, error)
	SurfaceCapabilities(surface Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(surface Surface) ([]vk.SurfaceFormat, error)
	PresentModes(surface Surface) ([]vk.PresentMode, error)

	// CreateDevice creates a logical device with one queue per
	// family listed in info.
	CreateDevice(info *DeviceInfo) (Device, error)
}

// DeviceInfo describes a logical device.
type DeviceInfo struct {
	// QueueFamilies must not contain duplicates.
	QueueFamilies []uint32
	Extensions    []string
	Layers        []string
}

// Surface is a presentation target bound to a window.
type Surface interface {
	Destroy()
}

// Device is a logical device.
// Objects created by a Device must be destroyed before the
// Device itself.
type Device interface {
	// Queue returns the first queue of the given family.
	// The family must have been requested at creation.
	Queue(family uint32) Queue

	// WaitIdle blocks until all queues of the device are idle.
	WaitIdle() error

	CreateSwapchain(info *SwapchainInfo) (Swapchain, error)
	CreateImageView(image Image, format vk.Format) (ImageView, error)
	CreateRenderPass(info *vk.RenderPassCreateInfo) (RenderPass, error)
	CreateFramebuffer(info *FramebufferInfo) (Framebuffer, error)
	CreateShaderModule(code []uint32) (ShaderModule, error)

	// CreatePipelineLayout creates a layout with no descriptor
	// sets and no push constant ranges.
	CreatePipelineLayout() (PipelineLayout, error)
	CreateGraphicsPipeline(info *PipelineInfo) (Pipeline, error)

	CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (CommandPool, error)
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)

	// WaitForFences blocks until every fence is signaled or
	// timeout (in nanoseconds) elapses, in which case
	// ErrTimeout is returned.
	WaitForFences(fences []Fence, timeout uint64) error
	ResetFences(fences []Fence) error

	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (Buffer, error)
	AllocateMemory(size vk.DeviceSize, memoryType uint32) (Memory, error)

	Destroy()
}

// Queue is a device queue.
type Queue interface {
	// Submit submits work for execution.
	// fence, if not nil, is signaled once all of it completes.
	Submit(submits []SubmitInfo, fence Fence) error

	// Present queues an image for presentation.
	// It returns ErrOutOfDate or ErrSuboptimal when the
	// swapchain no longer matches the surface.
	Present(info *PresentInfo) error

	WaitIdle() error
}

// SubmitInfo describes one batch of a queue submission.
type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []vk.PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

// PresentInfo describes a presentation request.
type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

// SwapchainInfo describes a swapchain.
type SwapchainInfo struct {
	Surface        Surface
	MinImageCount  uint32
	Format         vk.SurfaceFormat
	Extent         vk.Extent2D
	Usage          vk.ImageUsageFlags
	SharingMode    vk.SharingMode
	QueueFamilies  []uint32
	PreTransform   vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
	PresentMode    vk.PresentMode
	Clipped        bool
	OldSwapchain   Swapchain
}

// Swapchain is a chain of presentable images.
type Swapchain interface {
	// Images returns the images owned by the chain.
	// They must not be destroyed individually.
	Images() ([]Image, error)

	// AcquireNextImage returns the index of the next image to
	// render into. signal is signaled when the image is ready.
	// ErrOutOfDate means no image was acquired.
	// ErrSuboptimal is returned along with a valid index.
	AcquireNextImage(timeout uint64, signal Semaphore) (uint32, error)

	Destroy()
}

// Image is an image owned by a swapchain.
type Image interface {
	Extent() vk.Extent2D
}

// ImageView is a view of an Image.
type ImageView interface {
	Destroy()
}

// RenderPass is a render pass object.
type RenderPass interface {
	Destroy()
}

// FramebufferInfo describes a framebuffer.
type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
	Layers      uint32
}

// Framebuffer is a set of attachments bound to a RenderPass.
type Framebuffer interface {
	Destroy()
}

// ShaderModule is a SPIR-V module.
type ShaderModule interface {
	Destroy()
}

// ShaderStage is one programmable stage of a pipeline.
type ShaderStage struct {
	Stage  vk.ShaderStageFlagBits
	Module ShaderModule
	Entry  string
}

// PipelineInfo describes a graphics pipeline with a single
// viewport and scissor.
type PipelineInfo struct {
	Stages               []ShaderStage
	VertexBindings       []vk.VertexInputBindingDescription
	VertexAttributes     []vk.VertexInputAttributeDescription
	InputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	Viewport             vk.Viewport
	Scissor              vk.Rect2D
	Rasterizer           vk.PipelineRasterizationStateCreateInfo
	Multisample          vk.PipelineMultisampleStateCreateInfo
	DepthStencil         vk.PipelineDepthStencilStateCreateInfo
	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
	Layout               PipelineLayout
	RenderPass           RenderPass
	Subpass              uint32
}

// PipelineLayout is a pipeline layout.
type PipelineLayout interface {
	Destroy()
}

// Pipeline is a graphics pipeline.
type Pipeline interface {
	Destroy()
}

// CommandPool is the memory backing a set of command buffers.
type CommandPool interface {
	// Allocate allocates count command buffers of the given
	// level.
	Allocate(level vk.CommandBufferLevel, count uint32) ([]CommandBuffer, error)

	// Reset returns every command buffer allocated from the
	// pool to the initial state. None of them may be pending
	// execution.
	Reset() error

	// Destroy destroys the pool, freeing its command buffers.
	Destroy()
}

// CommandBuffer records commands for later submission.
type CommandBuffer interface {
	Begin(flags vk.CommandBufferUsageFlags) error
	End() error
	BeginRenderPass(pass RenderPass, fb Framebuffer, area vk.Rect2D, clearColor [4]float32)
	EndRenderPass()
	BindPipeline(pipeline Pipeline)
	BindVertexBuffers(first uint32, buffers []Buffer, offsets []vk.DeviceSize)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CopyBuffer(src, dst Buffer, regions []vk.BufferCopy)
}

// Fence is a GPU to CPU synchronization primitive.
type Fence interface {
	Destroy()
}

// Semaphore is a GPU to GPU synchronization primitive.
type Semaphore interface {
	Destroy()
}

// Buffer is a linear array of data.
// A Buffer has no storage until memory is bound to it.
type Buffer interface {
	Size() vk.DeviceSize
	MemoryRequirements() vk.MemoryRequirements
	BindMemory(mem Memory, offset vk.DeviceSize) error
	Destroy()
}

// Memory is a device memory allocation.
type Memory interface {
	// Map maps a range of host-visible memory and returns it as
	// a byte slice. The slice is valid until Unmap or Free.
	Map(offset, size vk.DeviceSize) ([]byte, error)
	Unmap()
	Free()
}
