package framevk

import (
	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Renderer draws the vertex buffer into every frame of the swapchain.
// All methods must be called from the goroutine running the frame
// loop.
type Renderer struct {
	dc       *DeviceContext
	cfg      Config
	compiler ShaderCompiler
	log      *Logger

	builder     *PipelineBuilder
	allocator   *Allocator
	upload      *OneTimeSubmitCommandGroup
	vertices    *GPUBuffer
	vertexCount uint32

	swapchain *SwapchainContext
	targets   *RenderTargets
	pipeline  *Pipeline
	groups    []*FrameBoundCommandGroup
	sync      *FrameSyncContext
	stats     *FrameStats
	watcher   *ShaderWatcher

	framebuffer vk.Extent2D
	resized     bool
}

// NewRenderer compiles the configured shaders, uploads vertices and
// builds the swapchain for a window of the given framebuffer size.
// A zero size defers the swapchain until Resize reports a visible
// window.
func NewRenderer(dc *DeviceContext, cfg Config, compiler ShaderCompiler, framebuffer vk.Extent2D, vertices []Vertex, l *Logger) (r *Renderer, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r = &Renderer{
		dc:          dc,
		cfg:         cfg,
		compiler:    compiler,
		log:         orDiscard(l),
		framebuffer: framebuffer,
	}
	defer func() {
		if err != nil {
			r.release()
			r = nil
		}
	}()

	if r.builder, err = r.compilePipeline(); err != nil {
		return r, err
	}

	r.allocator = NewAllocator(dc.Device, dc.MemoryTypes, r.log)
	r.upload, err = NewOneTimeSubmitCommandGroup(dc.Device, dc.GraphicsQueue, dc.Families.Graphics)
	if err != nil {
		return r, err
	}
	if r.vertices, err = UploadVertexBufferDataThroughTmpCommand(r.allocator, r.upload, vertices); err != nil {
		return r, err
	}
	r.vertexCount = uint32(len(vertices))

	if r.sync, err = NewFrameSyncContext(dc.Device, cfg.FramesInFlight); err != nil {
		return r, err
	}
	r.stats = NewFrameStats(cfg.ShowFPS, r.log)

	if err = r.buildSwapchain(); err != nil {
		if errors.Cause(err) != ErrZeroExtent {
			return r, err
		}
		r.log.Info.Printf("window has no area, swapchain deferred")
		r.resized = true
	}
	return r, nil
}

func (r *Renderer) compilePipeline() (*PipelineBuilder, error) {
	vert, err := r.compiler.Compile(r.cfg.Shaders.Vertex, ShaderVertex)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	frag, err := r.compiler.Compile(r.cfg.Shaders.Fragment, ShaderFragment)
	if err != nil {
		return nil, errors.Wrap(err, "fragment shader")
	}
	return NewPipelineBuilder(vert, frag, VertexLayoutOf()), nil
}

// WatchShaders makes the renderer rebuild its pipeline whenever w
// reports a change. The renderer closes w on Destroy.
func (r *Renderer) WatchShaders(w *ShaderWatcher) {
	r.watcher = w
}

// Resize records the new framebuffer size. The swapchain is rebuilt
// at the start of the next DrawFrame.
func (r *Renderer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	r.framebuffer = vk.Extent2D{Width: uint32(width), Height: uint32(height)}
	r.resized = true
}

// DrawFrame records, submits and presents one frame. A stale
// swapchain is not an error: it is rebuilt on the next call. Any
// returned error is fatal.
func (r *Renderer) DrawFrame() error {
	if r.watcher != nil && r.watcher.Dirty() {
		r.ReloadShaders()
	}
	if r.resized || r.swapchain == nil {
		if r.framebuffer.Width == 0 || r.framebuffer.Height == 0 {
			return nil
		}
		if err := r.recreateSwapchain(); err != nil {
			if errors.Cause(err) == ErrZeroExtent {
				return nil
			}
			return err
		}
	}

	if err := r.sync.WaitForSlot(); err != nil {
		return err
	}
	slot := r.sync.Slot()

	image, err := r.swapchain.Swapchain.AcquireNextImage(vk.MaxUint64, slot.ImageAvailable)
	switch {
	case errors.Is(err, hal.ErrOutOfDate):
		r.resized = true
		return nil
	case errors.Is(err, hal.ErrSuboptimal):
		r.resized = true
	case err != nil:
		return errors.Wrap(err, "acquire swapchain image")
	}

	if err := r.sync.GuardImage(image); err != nil {
		return err
	}
	cmd, err := r.record(image)
	if err != nil {
		return err
	}

	fences := []hal.Fence{slot.InFlight}
	if err := r.dc.Device.ResetFences(fences); err != nil {
		return errors.Wrap(err, "reset frame fence")
	}
	err = r.dc.GraphicsQueue.Submit([]hal.SubmitInfo{{
		WaitSemaphores:   []hal.Semaphore{slot.ImageAvailable},
		WaitStages:       []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBuffers:   []hal.CommandBuffer{cmd},
		SignalSemaphores: []hal.Semaphore{slot.RenderFinished},
	}}, slot.InFlight)
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}

	err = r.dc.PresentQueue.Present(&hal.PresentInfo{
		WaitSemaphores: []hal.Semaphore{slot.RenderFinished},
		Swapchain:      r.swapchain.Swapchain,
		ImageIndex:     image,
	})
	if hal.IsStale(err) {
		r.resized = true
	} else if err != nil {
		return errors.Wrap(err, "present")
	}

	r.sync.Advance()
	r.stats.Tick()
	return nil
}

func (r *Renderer) record(image uint32) (hal.CommandBuffer, error) {
	group := r.groups[image]
	if err := group.Reset(); err != nil {
		return nil, err
	}
	cmds, err := group.Allocate(1)
	if err != nil {
		return nil, errors.Wrap(err, "allocate frame command buffer")
	}
	cmd := cmds[0]

	if err := cmd.Begin(vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
		return nil, err
	}
	area := vk.Rect2D{Extent: r.swapchain.Extent}
	cmd.BeginRenderPass(r.targets.RenderPass, r.targets.Framebuffers[image], area, r.cfg.ClearColor)
	cmd.BindPipeline(r.pipeline.Handle)
	cmd.BindVertexBuffers(0, []hal.Buffer{r.vertices.Buffer}, []vk.DeviceSize{0})
	cmd.Draw(r.vertexCount, 1, 0, 0)
	cmd.EndRenderPass()
	if err := cmd.End(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (r *Renderer) recreateSwapchain() error {
	if err := r.dc.WaitIdle(); err != nil {
		return err
	}
	r.teardownSwapchain()
	return r.buildSwapchain()
}

// buildSwapchain creates the swapchain, views, render pass,
// framebuffers and pipeline, in that order, and sizes per image
// state to match.
func (r *Renderer) buildSwapchain() (err error) {
	defer func() {
		if err != nil {
			r.teardownSwapchain()
		}
	}()

	if r.swapchain, err = NewSwapchainContext(r.dc, r.framebuffer, r.log); err != nil {
		return err
	}
	if r.targets, err = NewRenderTargets(r.dc.Device, r.swapchain); err != nil {
		return err
	}
	if r.pipeline, err = r.builder.Build(r.dc.Device, r.targets.RenderPass, r.swapchain.Extent); err != nil {
		return err
	}
	if err = r.resizeGroups(r.swapchain.ImageCount()); err != nil {
		return err
	}
	r.sync.SetImageCount(r.swapchain.ImageCount())
	r.resized = false
	return nil
}

func (r *Renderer) resizeGroups(n int) error {
	for len(r.groups) > n {
		last := len(r.groups) - 1
		r.groups[last].Destroy()
		r.groups = r.groups[:last]
	}
	for len(r.groups) < n {
		g, err := NewFrameBoundCommandGroup(r.dc.Device, r.dc.Families.Graphics)
		if err != nil {
			return err
		}
		r.groups = append(r.groups, g)
	}
	return nil
}

// teardownSwapchain releases the pipeline, framebuffers, render
// pass, views and swapchain, in that order. The device must be idle.
func (r *Renderer) teardownSwapchain() {
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.targets != nil {
		r.targets.Destroy()
		r.targets = nil
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
}

// ReloadShaders recompiles the shaders and replaces the pipeline.
// On failure the current pipeline and shaders are kept.
func (r *Renderer) ReloadShaders() {
	builder, err := r.compilePipeline()
	if err != nil {
		r.log.Error.Printf("shader reload: %v", err)
		return
	}
	if r.swapchain == nil {
		r.builder = builder
		return
	}
	if err := r.dc.WaitIdle(); err != nil {
		r.log.Error.Printf("shader reload: %v", err)
		return
	}
	pipeline, err := builder.Build(r.dc.Device, r.targets.RenderPass, r.swapchain.Extent)
	if err != nil {
		r.log.Error.Printf("shader reload: %v", err)
		return
	}
	r.builder = builder
	r.pipeline.Destroy()
	r.pipeline = pipeline
	r.log.Info.Printf("pipeline rebuilt")
}

func (r *Renderer) Extent() vk.Extent2D {
	if r.swapchain == nil {
		return vk.Extent2D{}
	}
	return r.swapchain.Extent
}

func (r *Renderer) ImageCount() int {
	if r.swapchain == nil {
		return 0
	}
	return r.swapchain.ImageCount()
}

func (r *Renderer) Stats() *FrameStats { return r.stats }

// Destroy waits for the device to go idle and releases everything
// the renderer created. The DeviceContext is left to the caller.
func (r *Renderer) Destroy() error {
	if err := r.dc.WaitIdle(); err != nil {
		r.log.Error.Printf("destroy: %v", err)
	}
	return r.release()
}

func (r *Renderer) release() error {
	r.teardownSwapchain()
	if r.vertices != nil {
		r.vertices.Destroy(r.allocator)
		r.vertices = nil
	}
	for _, g := range r.groups {
		g.Destroy()
	}
	r.groups = nil
	if r.upload != nil {
		r.upload.Destroy()
		r.upload = nil
	}
	if r.sync != nil {
		r.sync.Destroy()
		r.sync = nil
	}
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			r.log.Warn.Printf("close shader watcher: %v", err)
		}
		r.watcher = nil
	}
	if r.allocator != nil {
		err := r.allocator.Destroy()
		r.allocator = nil
		return err
	}
	return nil
}
