package gputest

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Device struct {
	object
	gpu    *PhysicalDevice
	queues map[uint32]*Queue
}

func (d *Device) Queue(family uint32) hal.Queue {
	q, ok := d.queues[family]
	if !ok {
		return nil
	}
	return q
}

func (d *Device) WaitIdle() error {
	if err := d.alive("wait idle"); err != nil {
		return err
	}
	d.drv.event("wait idle")
	d.drv.completeAll()
	return nil
}

func (d *Device) Destroy() {
	if len(d.drv.pending) > 0 {
		d.drv.violation("device destroyed with %d pending submissions", len(d.drv.pending))
	}
	d.destroy()
}

func (d *Device) CreateSwapchain(info *hal.SwapchainInfo) (hal.Swapchain, error) {
	if err := d.alive("create swapchain"); err != nil {
		return nil, err
	}
	if err := checkSurface(info.Surface); err != nil {
		return nil, err
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 {
		d.drv.violation("swapchain with zero extent")
		return nil, errors.New("gputest: zero swapchain extent")
	}
	caps := d.gpu.Caps
	if info.MinImageCount < caps.MinImageCount ||
		(caps.MaxImageCount > 0 && info.MinImageCount > caps.MaxImageCount) {
		d.drv.violation("swapchain image count %d outside [%d, %d]",
			info.MinImageCount, caps.MinImageCount, caps.MaxImageCount)
	}
	d.drv.Swapchains = append(d.drv.Swapchains, *info)

	sc := &Swapchain{
		object:   d.drv.newObject("swapchain"),
		extent:   info.Extent,
		acquired: make(map[uint32]bool),
	}
	for i := uint32(0); i < info.MinImageCount; i++ {
		sc.images = append(sc.images, &Image{swapchain: sc, index: i})
	}
	return sc, nil
}

func (d *Device) CreateImageView(img hal.Image, format vk.Format) (hal.ImageView, error) {
	if err := d.alive("create image view"); err != nil {
		return nil, err
	}
	im := img.(*Image)
	if err := im.swapchain.alive("create image view"); err != nil {
		return nil, err
	}
	return &ImageView{object: d.drv.newObject("imageview"), image: im, Format: format}, nil
}

func (d *Device) CreateRenderPass(info *vk.RenderPassCreateInfo) (hal.RenderPass, error) {
	if err := d.alive("create render pass"); err != nil {
		return nil, err
	}
	d.drv.RenderPasses = append(d.drv.RenderPasses, *info)
	return &RenderPass{object: d.drv.newObject("renderpass")}, nil
}

func (d *Device) CreateFramebuffer(info *hal.FramebufferInfo) (hal.Framebuffer, error) {
	if err := d.alive("create framebuffer"); err != nil {
		return nil, err
	}
	if err := info.RenderPass.(*RenderPass).alive("create framebuffer"); err != nil {
		return nil, err
	}
	for _, v := range info.Attachments {
		if err := v.(*ImageView).alive("create framebuffer"); err != nil {
			return nil, err
		}
	}
	d.drv.Framebuffers = append(d.drv.Framebuffers, *info)
	return &Framebuffer{object: d.drv.newObject("framebuffer"), Width: info.Width, Height: info.Height}, nil
}

func (d *Device) CreateShaderModule(code []uint32) (hal.ShaderModule, error) {
	if err := d.alive("create shader module"); err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, errors.New("gputest: empty shader module")
	}
	return &ShaderModule{object: d.drv.newObject("shadermodule"), Code: code}, nil
}

func (d *Device) CreatePipelineLayout() (hal.PipelineLayout, error) {
	if err := d.alive("create pipeline layout"); err != nil {
		return nil, err
	}
	return &PipelineLayout{object: d.drv.newObject("pipelinelayout")}, nil
}

func (d *Device) CreateGraphicsPipeline(info *hal.PipelineInfo) (hal.Pipeline, error) {
	if err := d.alive("create pipeline"); err != nil {
		return nil, err
	}
	for _, s := range info.Stages {
		if err := s.Module.(*ShaderModule).alive("create pipeline"); err != nil {
			return nil, err
		}
	}
	if err := info.Layout.(*PipelineLayout).alive("create pipeline"); err != nil {
		return nil, err
	}
	if err := info.RenderPass.(*RenderPass).alive("create pipeline"); err != nil {
		return nil, err
	}
	if d.drv.FailPipeline {
		d.drv.event("create pipeline failed")
		return nil, errors.New("gputest: pipeline creation failed")
	}
	d.drv.Pipelines = append(d.drv.Pipelines, *info)
	return &Pipeline{object: d.drv.newObject("pipeline")}, nil
}

func (d *Device) CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (hal.CommandPool, error) {
	if err := d.alive("create command pool"); err != nil {
		return nil, err
	}
	if _, ok := d.queues[family]; !ok {
		return nil, errors.Errorf("gputest: no queue for family %d", family)
	}
	return &CommandPool{object: d.drv.newObject("commandpool"), family: family}, nil
}

func (d *Device) CreateFence(signaled bool) (hal.Fence, error) {
	if err := d.alive("create fence"); err != nil {
		return nil, err
	}
	return &Fence{object: d.drv.newObject("fence"), signaled: signaled}, nil
}

func (d *Device) CreateSemaphore() (hal.Semaphore, error) {
	if err := d.alive("create semaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{object: d.drv.newObject("semaphore")}, nil
}

func (d *Device) WaitForFences(fences []hal.Fence, timeout uint64) error {
	for _, hf := range fences {
		f := hf.(*Fence)
		if err := f.alive("wait"); err != nil {
			return err
		}
		d.drv.event("wait %s", f.id)
		if f.signaled {
			continue
		}
		if f.pending == nil {
			d.drv.violation("wait on %s which nothing will signal", f.id)
			return errors.Wrap(ErrDeadlock, f.id)
		}
		if timeout == 0 {
			return hal.ErrTimeout
		}
		d.drv.completeThrough(f.pending)
	}
	return nil
}

func (d *Device) ResetFences(fences []hal.Fence) error {
	for _, hf := range fences {
		f := hf.(*Fence)
		if err := f.alive("reset"); err != nil {
			return err
		}
		d.drv.event("reset %s", f.id)
		if f.pending != nil {
			d.drv.violation("reset of %s while its submission is pending", f.id)
		}
		f.signaled = false
	}
	return nil
}

func (d *Device) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (hal.Buffer, error) {
	if err := d.alive("create buffer"); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, errors.New("gputest: zero sized buffer")
	}
	bits := d.drv.MemoryTypeBits
	if bits == 0 {
		bits = 1<<uint(len(d.gpu.Memory)) - 1
	}
	return &Buffer{
		object: d.drv.newObject("buffer"),
		size:   size,
		Usage:  usage,
		reqs: vk.MemoryRequirements{
			Size:           (size + 15) &^ 15,
			Alignment:      16,
			MemoryTypeBits: bits,
		},
	}, nil
}

func (d *Device) AllocateMemory(size vk.DeviceSize, memoryType uint32) (hal.Memory, error) {
	if err := d.alive("allocate memory"); err != nil {
		return nil, err
	}
	if int(memoryType) >= len(d.gpu.Memory) {
		return nil, errors.Errorf("gputest: memory type %d out of range", memoryType)
	}
	return &Memory{
		object: d.drv.newObject("memory"),
		Type:   memoryType,
		flags:  d.gpu.Memory[memoryType].Flags,
		data:   make([]byte, size),
	}, nil
}

type Queue struct {
	dev    *Device
	family uint32
}

func (q *Queue) Submit(submits []hal.SubmitInfo, hf hal.Fence) error {
	drv := q.dev.drv
	s := &submission{refs: make(map[string]bool)}
	for _, info := range submits {
		if len(info.WaitSemaphores) != len(info.WaitStages) {
			drv.violation("%d wait semaphores with %d stages", len(info.WaitSemaphores), len(info.WaitStages))
		}
		for _, hs := range info.WaitSemaphores {
			sem := hs.(*Semaphore)
			if !sem.signaled {
				drv.violation("submit waits on unsignaled %s", sem.id)
			}
			sem.signaled = false
			s.refs[sem.id] = true
		}
		for _, hc := range info.CommandBuffers {
			c := hc.(*CommandBuffer)
			if err := c.pool.alive("submit"); err != nil {
				return err
			}
			if c.state != stateExecutable {
				drv.violation("submit of command buffer in state %s", c.state)
				return errors.Errorf("gputest: command buffer is %s", c.state)
			}
			c.state = statePending
			s.cmds = append(s.cmds, c)
			s.refs[c.pool.id] = true
			for id := range c.refs {
				s.refs[id] = true
			}
			drv.SubmittedCommands = append(drv.SubmittedCommands, append([]string(nil), c.commands...))
		}
		for _, hs := range info.SignalSemaphores {
			sem := hs.(*Semaphore)
			if sem.signaled {
				drv.violation("submit signals already signaled %s", sem.id)
			}
			sem.signaled = true
			s.refs[sem.id] = true
		}
	}
	fenceID := "no fence"
	if hf != nil {
		f := hf.(*Fence)
		if err := f.alive("submit"); err != nil {
			return err
		}
		if f.signaled || f.pending != nil {
			drv.violation("submit with %s not reset", f.id)
		}
		f.pending = s
		s.fence = f
		s.refs[f.id] = true
		fenceID = f.id
	}
	drv.pending = append(drv.pending, s)
	drv.event("submit %d buffers, %s", len(s.cmds), fenceID)
	return nil
}

func (q *Queue) Present(info *hal.PresentInfo) error {
	drv := q.dev.drv
	sc := info.Swapchain.(*Swapchain)
	if err := sc.alive("present"); err != nil {
		return err
	}
	for _, hs := range info.WaitSemaphores {
		sem := hs.(*Semaphore)
		if !sem.signaled {
			drv.violation("present waits on unsignaled %s", sem.id)
		}
		sem.signaled = false
	}
	if !sc.acquired[info.ImageIndex] {
		drv.violation("present of image %d which was not acquired", info.ImageIndex)
	}
	delete(sc.acquired, info.ImageIndex)
	drv.Presented = append(drv.Presented, info.ImageIndex)
	drv.event("present %s image %d", sc.id, info.ImageIndex)

	if len(drv.PresentErrors) > 0 {
		err := drv.PresentErrors[0]
		drv.PresentErrors = drv.PresentErrors[1:]
		return err
	}
	return nil
}

func (q *Queue) WaitIdle() error {
	q.dev.drv.event("queue wait idle")
	q.dev.drv.completeAll()
	return nil
}
