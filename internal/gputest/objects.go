package gputest

import (
	"fmt"

	"github.com/andewx/framevk/hal"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Swapchain struct {
	object
	extent   vk.Extent2D
	images   []*Image
	acquired map[uint32]bool
	next     uint32
}

func (s *Swapchain) Images() ([]hal.Image, error) {
	if err := s.alive("get images"); err != nil {
		return nil, err
	}
	out := make([]hal.Image, len(s.images))
	for i, img := range s.images {
		out[i] = img
	}
	return out, nil
}

func (s *Swapchain) AcquireNextImage(timeout uint64, signal hal.Semaphore) (uint32, error) {
	drv := s.drv
	if err := s.alive("acquire"); err != nil {
		return 0, err
	}
	var result error
	if len(drv.AcquireErrors) > 0 {
		result = drv.AcquireErrors[0]
		drv.AcquireErrors = drv.AcquireErrors[1:]
	}
	if errors.Is(result, hal.ErrOutOfDate) {
		drv.event("acquire %s out of date", s.id)
		return 0, result
	}

	var index uint32
	if n := len(drv.AcquireOrder); n > 0 {
		index = drv.AcquireOrder[drv.acquires%n] % uint32(len(s.images))
	} else {
		index = s.next
		s.next = (s.next + 1) % uint32(len(s.images))
	}
	drv.acquires++

	if s.acquired[index] {
		drv.violation("image %d acquired twice without present", index)
	}
	s.acquired[index] = true
	if signal != nil {
		sem := signal.(*Semaphore)
		if sem.signaled {
			drv.violation("acquire signals already signaled %s", sem.id)
		}
		sem.signaled = true
	}
	drv.event("acquire %s image %d", s.id, index)
	return index, result
}

func (s *Swapchain) Destroy() { s.destroy() }

type Image struct {
	swapchain *Swapchain
	index     uint32
}

func (i *Image) Extent() vk.Extent2D { return i.swapchain.extent }

type ImageView struct {
	object
	image  *Image
	Format vk.Format
}

func (v *ImageView) Destroy() { v.destroy() }

type RenderPass struct{ object }

func (r *RenderPass) Destroy() { r.destroy() }

type Framebuffer struct {
	object
	Width, Height uint32
}

func (f *Framebuffer) Destroy() { f.destroy() }

type ShaderModule struct {
	object
	Code []uint32
}

func (m *ShaderModule) Destroy() { m.destroy() }

type PipelineLayout struct{ object }

func (l *PipelineLayout) Destroy() { l.destroy() }

type Pipeline struct{ object }

func (p *Pipeline) Destroy() { p.destroy() }

type Fence struct {
	object
	signaled bool
	pending  *submission
}

func (f *Fence) Signaled() bool { return f.signaled }

func (f *Fence) Destroy() { f.destroy() }

type Semaphore struct {
	object
	signaled bool
}

func (s *Semaphore) Destroy() { s.destroy() }

type commandState int

const (
	stateInitial commandState = iota
	stateRecording
	stateExecutable
	statePending
)

func (s commandState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateRecording:
		return "recording"
	case stateExecutable:
		return "executable"
	case statePending:
		return "pending"
	}
	return "invalid"
}

type CommandPool struct {
	object
	family  uint32
	buffers []*CommandBuffer
}

func (p *CommandPool) Allocate(level vk.CommandBufferLevel, count uint32) ([]hal.CommandBuffer, error) {
	if err := p.alive("allocate"); err != nil {
		return nil, err
	}
	out := make([]hal.CommandBuffer, count)
	for i := range out {
		c := &CommandBuffer{pool: p}
		p.buffers = append(p.buffers, c)
		out[i] = c
	}
	p.drv.event("allocate %d from %s", count, p.id)
	return out, nil
}

// Allocated is the number of buffers allocated from the pool.
func (p *CommandPool) Allocated() int { return len(p.buffers) }

func (p *CommandPool) Reset() error {
	if err := p.alive("reset"); err != nil {
		return err
	}
	for _, c := range p.buffers {
		if c.state == statePending {
			p.drv.violation("reset of %s while a buffer is pending", p.id)
			return errors.Errorf("gputest: %s has pending buffers", p.id)
		}
	}
	for _, c := range p.buffers {
		c.reset()
	}
	p.drv.event("reset %s", p.id)
	return nil
}

func (p *CommandPool) Destroy() {
	for _, c := range p.buffers {
		if c.state == statePending {
			p.drv.violation("%s destroyed with a pending buffer", p.id)
			break
		}
	}
	p.destroy()
}

type CommandBuffer struct {
	pool     *CommandPool
	state    commandState
	commands []string
	refs     map[string]bool
	ops      []func()
}

func (c *CommandBuffer) reset() {
	c.state = stateInitial
	c.commands = nil
	c.refs = nil
	c.ops = nil
}

// Commands lists what was recorded since the last Begin.
func (c *CommandBuffer) Commands() []string { return c.commands }

func (c *CommandBuffer) record(format string, args ...interface{}) {
	if c.state != stateRecording {
		c.pool.drv.violation("command recorded in state %s", c.state)
	}
	c.commands = append(c.commands, fmt.Sprintf(format, args...))
}

func (c *CommandBuffer) ref(ids ...string) {
	if c.refs == nil {
		c.refs = make(map[string]bool)
	}
	for _, id := range ids {
		c.refs[id] = true
	}
}

func (c *CommandBuffer) Begin(flags vk.CommandBufferUsageFlags) error {
	if c.state == statePending {
		c.pool.drv.violation("begin on pending command buffer")
		return errors.New("gputest: command buffer is pending")
	}
	c.reset()
	c.state = stateRecording
	c.refs = make(map[string]bool)
	return nil
}

func (c *CommandBuffer) End() error {
	if c.state != stateRecording {
		c.pool.drv.violation("end in state %s", c.state)
		return errors.Errorf("gputest: end in state %s", c.state)
	}
	c.state = stateExecutable
	return nil
}

func (c *CommandBuffer) BeginRenderPass(pass hal.RenderPass, fb hal.Framebuffer, area vk.Rect2D, clearColor [4]float32) {
	p, f := pass.(*RenderPass), fb.(*Framebuffer)
	c.record("BeginRenderPass %dx%d", area.Extent.Width, area.Extent.Height)
	c.ref(p.id, f.id)
}

func (c *CommandBuffer) EndRenderPass() {
	c.record("EndRenderPass")
}

func (c *CommandBuffer) BindPipeline(pipeline hal.Pipeline) {
	p := pipeline.(*Pipeline)
	c.record("BindPipeline")
	c.ref(p.id)
}

func (c *CommandBuffer) BindVertexBuffers(first uint32, buffers []hal.Buffer, offsets []vk.DeviceSize) {
	c.record("BindVertexBuffers %d", len(buffers))
	for _, hb := range buffers {
		b := hb.(*Buffer)
		c.ref(b.id)
		if b.mem != nil {
			c.ref(b.mem.id)
		}
	}
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.record("Draw %d", vertexCount)
}

func (c *CommandBuffer) CopyBuffer(src, dst hal.Buffer, regions []vk.BufferCopy) {
	s, d := src.(*Buffer), dst.(*Buffer)
	c.record("CopyBuffer")
	c.ref(s.id, d.id)
	if s.mem == nil || d.mem == nil {
		c.pool.drv.violation("copy between buffers without memory")
		return
	}
	c.ref(s.mem.id, d.mem.id)
	for _, r := range regions {
		r := r
		c.ops = append(c.ops, func() {
			copy(d.mem.data[r.DstOffset:r.DstOffset+r.Size], s.mem.data[r.SrcOffset:r.SrcOffset+r.Size])
		})
	}
}

type Buffer struct {
	object
	size  vk.DeviceSize
	Usage vk.BufferUsageFlags
	reqs  vk.MemoryRequirements
	mem   *Memory
}

func (b *Buffer) Size() vk.DeviceSize                       { return b.size }
func (b *Buffer) MemoryRequirements() vk.MemoryRequirements { return b.reqs }

func (b *Buffer) BindMemory(hm hal.Memory, offset vk.DeviceSize) error {
	m := hm.(*Memory)
	if err := m.alive("bind"); err != nil {
		return err
	}
	if b.mem != nil {
		b.drv.violation("%s bound twice", b.id)
	}
	if b.reqs.MemoryTypeBits&(1<<m.Type) == 0 {
		b.drv.violation("%s bound to disallowed memory type %d", b.id, m.Type)
	}
	if vk.DeviceSize(len(m.data)) < offset+b.reqs.Size {
		return errors.Errorf("gputest: %s needs %d bytes, memory has %d", b.id, b.reqs.Size, len(m.data))
	}
	b.mem = m
	return nil
}

func (b *Buffer) Destroy() { b.destroy() }

// BufferData returns the bytes backing a fake buffer.
func BufferData(hb hal.Buffer) []byte {
	b := hb.(*Buffer)
	if b.mem == nil {
		return nil
	}
	return b.mem.data[:b.size]
}

type Memory struct {
	object
	Type   uint32
	flags  vk.MemoryPropertyFlags
	data   []byte
	mapped bool
}

func (m *Memory) Map(offset, size vk.DeviceSize) ([]byte, error) {
	if err := m.alive("map"); err != nil {
		return nil, err
	}
	if m.flags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) == 0 {
		m.drv.violation("map of %s which is not host visible", m.id)
		return nil, errors.Errorf("gputest: %s is not host visible", m.id)
	}
	if m.mapped {
		m.drv.violation("%s mapped twice", m.id)
		return nil, errors.Errorf("gputest: %s already mapped", m.id)
	}
	if offset+size > vk.DeviceSize(len(m.data)) {
		return nil, errors.Errorf("gputest: map past the end of %s", m.id)
	}
	m.mapped = true
	return m.data[offset : offset+size], nil
}

func (m *Memory) Unmap() {
	if !m.mapped {
		m.drv.violation("unmap of %s which is not mapped", m.id)
	}
	m.mapped = false
}

func (m *Memory) Free() { m.destroy() }
